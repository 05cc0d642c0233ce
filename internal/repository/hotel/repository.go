package hotel

import (
	"context"
	"database/sql"
	"errors"

	"github.com/uptrace/bun"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"

	"github.com/kirana-labs/kirana/internal/database"
	"github.com/kirana-labs/kirana/internal/entity"
)

var repoTracer = otel.Tracer("github.com/kirana-labs/kirana/repository/hotel")

// ErrNotFound is returned when a hotel is missing.
var ErrNotFound = errors.New("hotel not found")

// ErrDuplicateID is returned when a generated hotel id is already taken.
var ErrDuplicateID = errors.New("hotel id already exists")

// Repository encapsulates access to the hotel registry.
type Repository struct {
	writer *bun.DB
	reader *bun.DB
}

// NewRepository wires a repository backed by configured database connections.
func NewRepository(conns *database.Connections) *Repository {
	return &Repository{
		writer: conns.Writer,
		reader: conns.Reader,
	}
}

// Create registers a new hotel.
func (r *Repository) Create(ctx context.Context, h *entity.Hotel) error {
	if h == nil {
		return errors.New("nil hotel")
	}
	ctx, span := repoTracer.Start(ctx, "HotelRepository.Create", trace.WithAttributes(attribute.String("hotel.id", h.ID)))
	defer span.End()

	res, err := r.writer.NewInsert().Model(h).
		On("CONFLICT (id) DO NOTHING").
		Exec(ctx)
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, "insert failed")
		return err
	}
	if rows, err := res.RowsAffected(); err == nil && rows == 0 {
		span.SetStatus(codes.Error, "duplicate id")
		return ErrDuplicateID
	}
	return nil
}

// GetByID fetches a hotel by id.
func (r *Repository) GetByID(ctx context.Context, id string) (*entity.Hotel, error) {
	ctx, span := repoTracer.Start(ctx, "HotelRepository.GetByID", trace.WithAttributes(attribute.String("hotel.id", id)))
	defer span.End()

	h := new(entity.Hotel)
	err := r.reader.NewSelect().Model(h).Where("h.id = ?", id).Scan(ctx)
	if errors.Is(err, sql.ErrNoRows) {
		span.SetStatus(codes.Error, "not found")
		return nil, ErrNotFound
	}
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, "select failed")
		return nil, err
	}
	return h, nil
}

// List returns all registered hotels, newest first.
func (r *Repository) List(ctx context.Context) ([]entity.Hotel, error) {
	ctx, span := repoTracer.Start(ctx, "HotelRepository.List")
	defer span.End()

	var hotels []entity.Hotel
	if err := r.reader.NewSelect().Model(&hotels).Order("h.created_at DESC").Scan(ctx); err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, "select failed")
		return nil, err
	}
	if hotels == nil {
		hotels = []entity.Hotel{}
	}
	return hotels, nil
}

// SetPushToken stores the hotel's push-notification token.
func (r *Repository) SetPushToken(ctx context.Context, id, token string) error {
	ctx, span := repoTracer.Start(ctx, "HotelRepository.SetPushToken", trace.WithAttributes(attribute.String("hotel.id", id)))
	defer span.End()

	res, err := r.writer.NewUpdate().Model((*entity.Hotel)(nil)).
		Set("push_token = ?", token).
		Where("id = ?", id).
		Exec(ctx)
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, "update failed")
		return err
	}
	if rows, err := res.RowsAffected(); err == nil && rows == 0 {
		span.SetStatus(codes.Error, "not found")
		return ErrNotFound
	}
	return nil
}
