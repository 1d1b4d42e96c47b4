// Package api exposes the annotator over HTTP. Handlers are registered
// through huma so the OpenAPI document stays in sync with the code.
package api

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/http"

	"github.com/danielgtaylor/huma/v2"
	"github.com/danielgtaylor/huma/v2/adapters/humachi"
	"github.com/dgnsrekt/chartmark/internal/annotate"
	"github.com/dgnsrekt/chartmark/internal/codec"
	"github.com/dgnsrekt/chartmark/internal/controller"
	"github.com/dgnsrekt/chartmark/internal/relay"
	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
)

type Service interface {
	GetDrawMode(ctx context.Context) (controller.DrawModeState, error)
	SetDrawMode(ctx context.Context, kind string) (controller.DrawModeState, error)
	PointerDown(ctx context.Context, ev controller.PointerEvent) error
	PointerMove(ctx context.Context, ev controller.PointerEvent) error
	PointerUp(ctx context.Context, ev controller.PointerEvent) (*controller.ShapeInfo, error)
	CancelGesture(ctx context.Context) error
	ListShapes(ctx context.Context) ([]controller.ShapeInfo, error)
	GetShape(ctx context.Context, id string) (controller.ShapeInfo, error)
	SetSelected(ctx context.Context, id string, selected bool) error
	DeleteSelected(ctx context.Context) (int, error)
	Undo(ctx context.Context) (bool, error)
	Redo(ctx context.Context) (bool, error)
	History(ctx context.Context) (controller.HistoryState, error)
	Clear(ctx context.Context) error
	SaveDocument(ctx context.Context, name string) (codec.DocumentInfo, error)
	LoadDocument(ctx context.Context, name string) (controller.LoadResult, error)
	ListDocuments(ctx context.Context) ([]codec.DocumentInfo, error)
	DeleteDocument(ctx context.Context, name string) error
}

func NewServer(svc Service, broker *relay.Broker) http.Handler {
	router := chi.NewMux()
	router.Use(middleware.RequestID)
	router.Use(requestLogger)
	router.Use(middleware.Recoverer)

	cfg := huma.DefaultConfig("Chartmark Annotator API", "1.0.0")
	cfg.DocsPath = ""
	api := humachi.New(router, cfg)

	router.Get("/docs", func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "text/html")
		if _, err := w.Write([]byte(docsHTML)); err != nil {
			slog.Debug("docs response write failed", "error", err)
		}
	})

	registerSessionHandlers(api, svc)
	registerShapeHandlers(api, svc)
	registerDocumentHandlers(api, svc)

	if broker != nil {
		router.Get("/api/v1/events", relay.SSEHandler(broker))
		router.Get("/api/v1/events/ws", relay.WSHandler(broker))
	}

	return router
}

func mapErr(err error) error {
	if err == nil {
		return nil
	}
	var coded *annotate.CodedError
	if errors.As(err, &coded) {
		switch coded.Code {
		case annotate.CodeValidation, annotate.CodeUnknownKind:
			return huma.Error400BadRequest(coded.Message)
		case annotate.CodeNotFound:
			return huma.Error404NotFound(coded.Message)
		case annotate.CodeInvalidState:
			return huma.Error409Conflict(coded.Message)
		case annotate.CodeCanvasUnavailable:
			return huma.Error502BadGateway(coded.Message)
		default:
			return huma.Error500InternalServerError(fmt.Sprintf("%s: %s", coded.Code, coded.Message))
		}
	}
	return huma.Error500InternalServerError(err.Error())
}
