package httpapi

import (
	"context"
	"encoding/json"
	"net/http"

	"go.uber.org/zap"

	"github.com/andreasstove999/storefront-go/internal/design"
)

type DesignService interface {
	Create(ctx context.Context, in design.NewDesign) (design.Design, error)
	ListAll(ctx context.Context) ([]design.Design, error)
	ListMine(ctx context.Context, userID string) ([]design.Design, error)
}

type DesignHandler struct {
	svc DesignService
	log *zap.Logger
}

func NewDesignHandler(svc DesignService, log *zap.Logger) *DesignHandler {
	return &DesignHandler{svc: svc, log: log}
}

// createDesignRequest carries the path of an image already uploaded to
// object storage; the configurator scene is stored as sent.
type createDesignRequest struct {
	ImagePath    string          `json:"imagePath" validate:"required"`
	Message      string          `json:"message"`
	Scene        json.RawMessage `json:"scene"`
	ExampleImage string          `json:"exampleImage"`
}

func (h *DesignHandler) Create(w http.ResponseWriter, r *http.Request) {
	var body createDesignRequest
	if err := decodeJSON(w, r, &body); err != nil {
		writeError(w, r, h.log, err)
		return
	}

	ctx, cancel := context.WithTimeout(r.Context(), requestTimeout)
	defer cancel()

	p := principal(r)
	d, err := h.svc.Create(ctx, design.NewDesign{
		UserID:       p.UserID,
		UserEmail:    p.Email,
		Message:      body.Message,
		ImagePath:    body.ImagePath,
		Scene:        body.Scene,
		ExampleImage: body.ExampleImage,
	})
	if err != nil {
		writeError(w, r, h.log, err)
		return
	}
	writeJSON(w, http.StatusCreated, d)
}

func (h *DesignHandler) ListMine(w http.ResponseWriter, r *http.Request) {
	ctx, cancel := context.WithTimeout(r.Context(), requestTimeout)
	defer cancel()

	designs, err := h.svc.ListMine(ctx, principal(r).UserID)
	if err != nil {
		writeError(w, r, h.log, err)
		return
	}
	writeJSON(w, http.StatusOK, designs)
}

func (h *DesignHandler) AdminList(w http.ResponseWriter, r *http.Request) {
	ctx, cancel := context.WithTimeout(r.Context(), requestTimeout)
	defer cancel()

	designs, err := h.svc.ListAll(ctx)
	if err != nil {
		writeError(w, r, h.log, err)
		return
	}
	writeJSON(w, http.StatusOK, designs)
}
