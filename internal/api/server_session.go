package api

import (
	"context"
	"net/http"

	"github.com/danielgtaylor/huma/v2"
	"github.com/dgnsrekt/chartmark/internal/controller"
)

type drawModeOutput struct {
	Body controller.DrawModeState
}

type pointerInput struct {
	Body controller.PointerEvent
}

type statusOutput struct {
	Body struct {
		Status string `json:"status"`
	}
}

func registerSessionHandlers(api huma.API, svc Service) {
	huma.Register(api, huma.Operation{OperationID: "get-draw-mode", Method: http.MethodGet, Path: "/api/v1/session/mode", Summary: "Get the current draw mode and interaction state", Tags: []string{"Session"}},
		func(ctx context.Context, input *struct{}) (*drawModeOutput, error) {
			state, err := svc.GetDrawMode(ctx)
			if err != nil {
				return nil, mapErr(err)
			}
			return &drawModeOutput{Body: state}, nil
		})

	type setModeInput struct {
		Body struct {
			Mode string `json:"mode" required:"true" doc:"Shape kind to arm, e.g. TrendLine. Use None to return to selection mode."`
		}
	}
	huma.Register(api, huma.Operation{OperationID: "set-draw-mode", Method: http.MethodPut, Path: "/api/v1/session/mode", Summary: "Arm a draw tool", Tags: []string{"Session"}},
		func(ctx context.Context, input *setModeInput) (*drawModeOutput, error) {
			state, err := svc.SetDrawMode(ctx, input.Body.Mode)
			if err != nil {
				return nil, mapErr(err)
			}
			return &drawModeOutput{Body: state}, nil
		})

	huma.Register(api, huma.Operation{OperationID: "pointer-down", Method: http.MethodPost, Path: "/api/v1/session/pointer/down", Summary: "Inject a pointer-down event", Tags: []string{"Session"}},
		func(ctx context.Context, input *pointerInput) (*statusOutput, error) {
			if err := svc.PointerDown(ctx, input.Body); err != nil {
				return nil, mapErr(err)
			}
			out := &statusOutput{}
			out.Body.Status = "ok"
			return out, nil
		})

	huma.Register(api, huma.Operation{OperationID: "pointer-move", Method: http.MethodPost, Path: "/api/v1/session/pointer/move", Summary: "Inject a pointer-move event", Tags: []string{"Session"}},
		func(ctx context.Context, input *pointerInput) (*statusOutput, error) {
			if err := svc.PointerMove(ctx, input.Body); err != nil {
				return nil, mapErr(err)
			}
			out := &statusOutput{}
			out.Body.Status = "ok"
			return out, nil
		})

	type pointerUpOutput struct {
		Body struct {
			Status string                `json:"status"`
			Shape  *controller.ShapeInfo `json:"shape,omitempty"`
		}
	}
	huma.Register(api, huma.Operation{OperationID: "pointer-up", Method: http.MethodPost, Path: "/api/v1/session/pointer/up", Summary: "Inject a pointer-up event; a finished drag commits the shape", Tags: []string{"Session"}},
		func(ctx context.Context, input *pointerInput) (*pointerUpOutput, error) {
			shape, err := svc.PointerUp(ctx, input.Body)
			if err != nil {
				return nil, mapErr(err)
			}
			out := &pointerUpOutput{}
			out.Body.Status = "ok"
			out.Body.Shape = shape
			return out, nil
		})

	huma.Register(api, huma.Operation{OperationID: "cancel-gesture", Method: http.MethodPost, Path: "/api/v1/session/cancel", Summary: "Discard the in-progress drag", Tags: []string{"Session"}},
		func(ctx context.Context, input *struct{}) (*statusOutput, error) {
			if err := svc.CancelGesture(ctx); err != nil {
				return nil, mapErr(err)
			}
			out := &statusOutput{}
			out.Body.Status = "cancelled"
			return out, nil
		})
}
