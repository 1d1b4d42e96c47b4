package annotate

// Command is a reversible unit of mutation recorded in history. Undo must
// restore the exact pre-Execute state: same shape identity, same canvas
// attachment. Commands run inside the manager's lock and only touch the
// manager through its locked mutation hooks.
type Command interface {
	Execute() error
	Undo() error
	// Describe names the operation for the journal and logs.
	Describe() string
}

type addCommand struct {
	m     *Manager
	shape *Shape
}

// NewAddCommand builds the command that commits a shape to the manager's
// collection and attaches its visual to the host canvas.
func NewAddCommand(m *Manager, shape *Shape) Command {
	return &addCommand{m: m, shape: shape}
}

func (c *addCommand) Execute() error {
	return c.m.attachShapeLocked(c.shape, -1)
}

func (c *addCommand) Undo() error {
	_, err := c.m.detachShapeLocked(c.shape.ID)
	return err
}

func (c *addCommand) Describe() string {
	return "add " + c.shape.Kind.String() + " " + c.shape.ID
}

type deleteCommand struct {
	m     *Manager
	shape *Shape
	index int
}

// NewDeleteCommand builds the command that removes a tracked shape. The
// collection index is captured on Execute so Undo can restore order exactly.
func NewDeleteCommand(m *Manager, shape *Shape) Command {
	return &deleteCommand{m: m, shape: shape, index: -1}
}

func (c *deleteCommand) Execute() error {
	idx, err := c.m.detachShapeLocked(c.shape.ID)
	if err != nil {
		return err
	}
	c.index = idx
	return nil
}

func (c *deleteCommand) Undo() error {
	return c.m.attachShapeLocked(c.shape, c.index)
}

func (c *deleteCommand) Describe() string {
	return "delete " + c.shape.Kind.String() + " " + c.shape.ID
}
