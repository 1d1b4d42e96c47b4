package api

import (
	"context"
	"net/http"

	"github.com/danielgtaylor/huma/v2"
	"github.com/dgnsrekt/chartmark/internal/codec"
	"github.com/dgnsrekt/chartmark/internal/controller"
)

func registerDocumentHandlers(api huma.API, svc Service) {
	type documentListOutput struct {
		Body struct {
			Documents []codec.DocumentInfo `json:"documents"`
		}
	}
	huma.Register(api, huma.Operation{OperationID: "list-documents", Method: http.MethodGet, Path: "/api/v1/documents", Summary: "List stored annotation documents", Tags: []string{"Documents"}},
		func(ctx context.Context, input *struct{}) (*documentListOutput, error) {
			docs, err := svc.ListDocuments(ctx)
			if err != nil {
				return nil, mapErr(err)
			}
			out := &documentListOutput{}
			out.Body.Documents = docs
			return out, nil
		})

	type documentNameInput struct {
		Name string `path:"name" doc:"Document name. Letters, digits, dot, dash and underscore."`
	}
	type documentInfoOutput struct {
		Body codec.DocumentInfo
	}
	huma.Register(api, huma.Operation{OperationID: "save-document", Method: http.MethodPut, Path: "/api/v1/documents/{name}", Summary: "Persist the current shapes under a document name", Tags: []string{"Documents"}},
		func(ctx context.Context, input *documentNameInput) (*documentInfoOutput, error) {
			info, err := svc.SaveDocument(ctx, input.Name)
			if err != nil {
				return nil, mapErr(err)
			}
			return &documentInfoOutput{Body: info}, nil
		})

	type loadResultOutput struct {
		Body controller.LoadResult
	}
	huma.Register(api, huma.Operation{OperationID: "load-document", Method: http.MethodPost, Path: "/api/v1/documents/{name}/load", Summary: "Replace the current shapes with a stored document", Tags: []string{"Documents"}},
		func(ctx context.Context, input *documentNameInput) (*loadResultOutput, error) {
			result, err := svc.LoadDocument(ctx, input.Name)
			if err != nil {
				return nil, mapErr(err)
			}
			return &loadResultOutput{Body: result}, nil
		})

	huma.Register(api, huma.Operation{OperationID: "delete-document", Method: http.MethodDelete, Path: "/api/v1/documents/{name}", Summary: "Delete a stored document", Tags: []string{"Documents"}},
		func(ctx context.Context, input *documentNameInput) (*statusOutput, error) {
			if err := svc.DeleteDocument(ctx, input.Name); err != nil {
				return nil, mapErr(err)
			}
			out := &statusOutput{}
			out.Body.Status = "deleted"
			return out, nil
		})
}
