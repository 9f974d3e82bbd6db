// Package design stores the custom designs customers submit from the
// configurator for the shop to review.
package design

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"
	"time"

	"github.com/andreasstove999/storefront-go/internal/apperr"
	"github.com/andreasstove999/storefront-go/internal/db"
	"github.com/andreasstove999/storefront-go/internal/logger"
	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"go.uber.org/zap"
)

type Design struct {
	ID        string  `json:"id"`
	UserID    string  `json:"userId"`
	UserEmail *string `json:"userEmail,omitempty"`
	Message   *string `json:"message"`
	ImagePath string  `json:"imagePath"`
	// ImageURL is a signed URL for ImagePath, or the raw path when signing
	// is unavailable.
	ImageURL     string          `json:"imageUrl"`
	Scene        json.RawMessage `json:"scene,omitempty"`
	ExampleImage *string         `json:"exampleImage"`
	CreatedAt    time.Time       `json:"createdAt"`
}

type NewDesign struct {
	UserID       string
	UserEmail    string
	Message      string
	ImagePath    string
	Scene        json.RawMessage
	ExampleImage string
}

type Repository interface {
	Create(ctx context.Context, d *Design) error
	ListAll(ctx context.Context) ([]Design, error)
	ListByUser(ctx context.Context, userID string) ([]Design, error)
}

type ImageResolver interface {
	Resolve(ctx context.Context, path string) string
}

const designColumns = `id::text, user_id, user_email, message, image_path, scene, example_image, created_at`

type PostgresRepository struct {
	pool db.DBPool
}

func NewPostgresRepository(pool db.DBPool) *PostgresRepository {
	return &PostgresRepository{pool: pool}
}

func (r *PostgresRepository) Create(ctx context.Context, d *Design) error {
	if d.ID == "" {
		d.ID = uuid.NewString()
	}
	err := r.pool.QueryRow(ctx,
		`INSERT INTO designs (id, user_id, user_email, message, image_path, scene, example_image)
         VALUES ($1, $2, $3, $4, $5, $6, $7)
         RETURNING created_at`,
		d.ID, d.UserID, d.UserEmail, d.Message, d.ImagePath, sceneArg(d.Scene), d.ExampleImage,
	).Scan(&d.CreatedAt)
	if err != nil {
		return fmt.Errorf("insert design: %w", err)
	}
	return nil
}

func (r *PostgresRepository) ListAll(ctx context.Context) ([]Design, error) {
	rows, err := r.pool.Query(ctx, `SELECT `+designColumns+` FROM designs ORDER BY created_at DESC`)
	if err != nil {
		return nil, fmt.Errorf("select designs: %w", err)
	}
	return collectDesigns(rows)
}

func (r *PostgresRepository) ListByUser(ctx context.Context, userID string) ([]Design, error) {
	rows, err := r.pool.Query(ctx,
		`SELECT `+designColumns+` FROM designs WHERE user_id = $1 ORDER BY created_at DESC`, userID)
	if err != nil {
		return nil, fmt.Errorf("select designs: %w", err)
	}
	return collectDesigns(rows)
}

// sceneArg keeps an absent scene NULL instead of the JSON literal null.
func sceneArg(scene json.RawMessage) any {
	if len(scene) == 0 || string(scene) == "null" {
		return nil
	}
	return []byte(scene)
}

func collectDesigns(rows pgx.Rows) ([]Design, error) {
	defer rows.Close()

	designs := []Design{}
	for rows.Next() {
		var (
			d     Design
			scene []byte
		)
		if err := rows.Scan(&d.ID, &d.UserID, &d.UserEmail, &d.Message, &d.ImagePath, &scene,
			&d.ExampleImage, &d.CreatedAt); err != nil {
			return nil, fmt.Errorf("scan design: %w", err)
		}
		if len(scene) > 0 {
			d.Scene = json.RawMessage(scene)
		}
		designs = append(designs, d)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("rows: %w", err)
	}
	return designs, nil
}

type Service struct {
	repo   Repository
	images ImageResolver
	log    *zap.Logger
}

func NewService(repo Repository, images ImageResolver, log *zap.Logger) *Service {
	return &Service{repo: repo, images: images, log: log}
}

func (s *Service) Create(ctx context.Context, in NewDesign) (Design, error) {
	path := strings.TrimSpace(in.ImagePath)
	if path == "" {
		return Design{}, apperr.Validation("imagePath is required")
	}
	if len(in.Scene) > 0 && !json.Valid(in.Scene) {
		return Design{}, apperr.Validation("scene must be valid JSON")
	}

	d := Design{
		UserID:       in.UserID,
		UserEmail:    optional(strings.ToLower(in.UserEmail)),
		Message:      optional(in.Message),
		ImagePath:    path,
		Scene:        in.Scene,
		ExampleImage: optional(in.ExampleImage),
	}
	if err := s.repo.Create(ctx, &d); err != nil {
		return Design{}, err
	}
	logger.Info(ctx, s.log, "design submitted", zap.String("design_id", d.ID), zap.String("user_id", d.UserID))
	return s.withImage(ctx, d), nil
}

// ListAll returns every submitted design, newest first.
func (s *Service) ListAll(ctx context.Context) ([]Design, error) {
	designs, err := s.repo.ListAll(ctx)
	if err != nil {
		return nil, err
	}
	for i := range designs {
		designs[i] = s.withImage(ctx, designs[i])
	}
	return designs, nil
}

func (s *Service) ListMine(ctx context.Context, userID string) ([]Design, error) {
	designs, err := s.repo.ListByUser(ctx, userID)
	if err != nil {
		return nil, err
	}
	for i := range designs {
		designs[i] = s.withImage(ctx, designs[i])
	}
	return designs, nil
}

func (s *Service) withImage(ctx context.Context, d Design) Design {
	d.ImageURL = d.ImagePath
	if s.images != nil {
		d.ImageURL = s.images.Resolve(ctx, d.ImagePath)
	}
	return d
}

func optional(s string) *string {
	s = strings.TrimSpace(s)
	if s == "" {
		return nil
	}
	return &s
}
