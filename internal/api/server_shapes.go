package api

import (
	"context"
	"net/http"

	"github.com/danielgtaylor/huma/v2"
	"github.com/dgnsrekt/chartmark/internal/controller"
)

func registerShapeHandlers(api huma.API, svc Service) {
	type shapeListOutput struct {
		Body struct {
			Shapes []controller.ShapeInfo `json:"shapes"`
			Count  int                    `json:"count"`
		}
	}
	huma.Register(api, huma.Operation{OperationID: "list-shapes", Method: http.MethodGet, Path: "/api/v1/shapes", Summary: "List tracked shapes in insertion order", Tags: []string{"Shapes"}},
		func(ctx context.Context, input *struct{}) (*shapeListOutput, error) {
			shapes, err := svc.ListShapes(ctx)
			if err != nil {
				return nil, mapErr(err)
			}
			out := &shapeListOutput{}
			out.Body.Shapes = shapes
			out.Body.Count = len(shapes)
			return out, nil
		})

	type shapeIDInput struct {
		ShapeID string `path:"shape_id"`
	}
	type shapeOutput struct {
		Body controller.ShapeInfo
	}
	huma.Register(api, huma.Operation{OperationID: "get-shape", Method: http.MethodGet, Path: "/api/v1/shapes/{shape_id}", Summary: "Get one shape by ID", Tags: []string{"Shapes"}},
		func(ctx context.Context, input *shapeIDInput) (*shapeOutput, error) {
			shape, err := svc.GetShape(ctx, input.ShapeID)
			if err != nil {
				return nil, mapErr(err)
			}
			return &shapeOutput{Body: shape}, nil
		})

	type selectInput struct {
		ShapeID string `path:"shape_id"`
		Body    struct {
			Selected bool `json:"selected"`
		}
	}
	huma.Register(api, huma.Operation{OperationID: "set-shape-selected", Method: http.MethodPut, Path: "/api/v1/shapes/{shape_id}/selection", Summary: "Set a shape's selection flag", Tags: []string{"Shapes"}},
		func(ctx context.Context, input *selectInput) (*statusOutput, error) {
			if err := svc.SetSelected(ctx, input.ShapeID, input.Body.Selected); err != nil {
				return nil, mapErr(err)
			}
			out := &statusOutput{}
			out.Body.Status = "ok"
			return out, nil
		})

	type deleteSelectedOutput struct {
		Body struct {
			Deleted int `json:"deleted"`
		}
	}
	huma.Register(api, huma.Operation{OperationID: "delete-selected", Method: http.MethodDelete, Path: "/api/v1/shapes/selected", Summary: "Delete every selected shape", Tags: []string{"Shapes"}},
		func(ctx context.Context, input *struct{}) (*deleteSelectedOutput, error) {
			deleted, err := svc.DeleteSelected(ctx)
			if err != nil {
				return nil, mapErr(err)
			}
			out := &deleteSelectedOutput{}
			out.Body.Deleted = deleted
			return out, nil
		})

	huma.Register(api, huma.Operation{OperationID: "clear-shapes", Method: http.MethodDelete, Path: "/api/v1/shapes", Summary: "Remove all shapes and reset history", Tags: []string{"Shapes"}},
		func(ctx context.Context, input *struct{}) (*statusOutput, error) {
			if err := svc.Clear(ctx); err != nil {
				return nil, mapErr(err)
			}
			out := &statusOutput{}
			out.Body.Status = "cleared"
			return out, nil
		})

	type historyOutput struct {
		Body controller.HistoryState
	}
	huma.Register(api, huma.Operation{OperationID: "get-history", Method: http.MethodGet, Path: "/api/v1/history", Summary: "Report undo/redo availability", Tags: []string{"History"}},
		func(ctx context.Context, input *struct{}) (*historyOutput, error) {
			state, err := svc.History(ctx)
			if err != nil {
				return nil, mapErr(err)
			}
			return &historyOutput{Body: state}, nil
		})

	type historyStepOutput struct {
		Body struct {
			Applied bool                    `json:"applied"`
			History controller.HistoryState `json:"history"`
		}
	}
	huma.Register(api, huma.Operation{OperationID: "undo", Method: http.MethodPost, Path: "/api/v1/history/undo", Summary: "Undo the most recent command", Tags: []string{"History"}},
		func(ctx context.Context, input *struct{}) (*historyStepOutput, error) {
			applied, err := svc.Undo(ctx)
			if err != nil {
				return nil, mapErr(err)
			}
			state, err := svc.History(ctx)
			if err != nil {
				return nil, mapErr(err)
			}
			out := &historyStepOutput{}
			out.Body.Applied = applied
			out.Body.History = state
			return out, nil
		})

	huma.Register(api, huma.Operation{OperationID: "redo", Method: http.MethodPost, Path: "/api/v1/history/redo", Summary: "Re-apply the most recently undone command", Tags: []string{"History"}},
		func(ctx context.Context, input *struct{}) (*historyStepOutput, error) {
			applied, err := svc.Redo(ctx)
			if err != nil {
				return nil, mapErr(err)
			}
			state, err := svc.History(ctx)
			if err != nil {
				return nil, mapErr(err)
			}
			out := &historyStepOutput{}
			out.Body.Applied = applied
			out.Body.History = state
			return out, nil
		})
}
