// Package store mirrors job records to SurrealDB with auto-reconnect support.
package store

import (
	"context"
	"crypto/tls"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"github.com/surrealdb/surrealdb.go"
	"github.com/surrealdb/surrealdb.go/contrib/rews"
	"github.com/surrealdb/surrealdb.go/pkg/connection"
	"github.com/surrealdb/surrealdb.go/pkg/connection/gorillaws"
	"github.com/surrealdb/surrealdb.go/pkg/logger"
	surrealmodels "github.com/surrealdb/surrealdb.go/pkg/models"
	"github.com/surrealdb/surrealdb.go/surrealcbor"

	"github.com/planforge/planforge/internal/job"
)

func init() {
	// Force HTTP/1.1 for WSS connections to prevent HTTP/2 ALPN negotiation.
	// WebSocket upgrade requires HTTP/1.1 semantics which fail under HTTP/2.
	gorillaws.DefaultDialer.TLSClientConfig = &tls.Config{
		NextProtos: []string{"http/1.1"},
	}
}

// Config holds SurrealDB connection configuration.
type Config struct {
	URL       string
	Namespace string
	Database  string
	Username  string
	Password  string
	AuthLevel string // "root" or "database"
}

// Client wraps a SurrealDB connection with auto-reconnect. It implements
// job.Mirror; the in-memory job store remains the source of truth.
type Client struct {
	conn   *rews.Connection[*gorillaws.Connection]
	db     *surrealdb.DB
	cfg    Config
	logger logger.Logger
}

// jobRow is the persisted shape of a job record.
type jobRow struct {
	ID           surrealmodels.RecordID `json:"id"`
	JobID        string                 `json:"job_id"`
	AthleteName  string                 `json:"athlete_name"`
	Goals        string                 `json:"goals,omitempty"`
	Status       string                 `json:"status"`
	Message      string                 `json:"message,omitempty"`
	ArtifactPath string                 `json:"artifact_path,omitempty"`
	CreatedAt    time.Time              `json:"created_at"`
	UpdatedAt    time.Time              `json:"updated_at"`
}

// NewClient creates a new SurrealDB client with auto-reconnecting WebSocket.
func NewClient(ctx context.Context, cfg Config, log *slog.Logger) (*Client, error) {
	var sdkLogger logger.Logger
	if log != nil {
		sdkLogger = logger.New(log.Handler())
	} else {
		sdkLogger = logger.New(slog.Default().Handler())
	}

	// surrealcbor handles SurrealDB's custom CBOR tags
	codec := surrealcbor.New()

	// gorillaws requires ws:// or wss:// URL without /rpc suffix (it adds /rpc internally)
	baseURL := strings.TrimSuffix(cfg.URL, "/rpc")

	conn := rews.New(
		func(ctx context.Context) (*gorillaws.Connection, error) {
			ws := gorillaws.New(&connection.Config{
				BaseURL:     baseURL,
				Marshaler:   codec,
				Unmarshaler: codec,
				Logger:      sdkLogger,
			})
			return ws, nil
		},
		5*time.Second,
		codec,
		sdkLogger,
	)

	retryer := rews.NewExponentialBackoffRetryer()
	retryer.InitialDelay = 1 * time.Second
	retryer.MaxDelay = 30 * time.Second
	retryer.Multiplier = 2.0
	retryer.MaxRetries = 10
	conn.Retryer = retryer

	sdkLogger.Info("connecting to SurrealDB", "url", cfg.URL)
	if err := conn.Connect(ctx); err != nil {
		return nil, fmt.Errorf("connect: %w", err)
	}

	db, err := surrealdb.FromConnection(ctx, conn)
	if err != nil {
		_ = conn.Close(ctx)
		return nil, fmt.Errorf("from connection: %w", err)
	}

	if cfg.AuthLevel == "database" {
		_, err = db.SignIn(ctx, surrealdb.Auth{
			Namespace: cfg.Namespace,
			Database:  cfg.Database,
			Username:  cfg.Username,
			Password:  cfg.Password,
		})
	} else {
		// Default to root auth
		_, err = db.SignIn(ctx, surrealdb.Auth{
			Username: cfg.Username,
			Password: cfg.Password,
		})
	}
	if err != nil {
		_ = conn.Close(ctx)
		return nil, fmt.Errorf("signin: %w", err)
	}

	if err := db.Use(ctx, cfg.Namespace, cfg.Database); err != nil {
		_ = conn.Close(ctx)
		return nil, fmt.Errorf("use: %w", err)
	}

	sdkLogger.Info("SurrealDB connection established")
	return &Client{conn: conn, db: db, cfg: cfg, logger: sdkLogger}, nil
}

// Close closes the SurrealDB connection.
func (c *Client) Close(ctx context.Context) error {
	c.logger.Info("closing SurrealDB connection")
	return c.conn.Close(ctx)
}

// InitSchema initializes the database schema.
func (c *Client) InitSchema(ctx context.Context) error {
	_, err := surrealdb.Query[any](ctx, c.db, schemaSQL, nil)
	if err != nil {
		return fmt.Errorf("init schema: %w", err)
	}
	return nil
}

// SaveJob upserts a job record keyed by its normalized athlete key, so
// every lifecycle transition overwrites the previous mirrored state.
func (c *Client) SaveJob(ctx context.Context, rec job.Record) error {
	_, err := surrealdb.Query[any](ctx, c.db, `
		UPSERT type::record("job", $key) SET
			job_id = $job_id,
			athlete_name = $athlete_name,
			goals = $goals,
			status = $status,
			message = $message,
			artifact_path = $artifact_path,
			created_at = <datetime>$created_at,
			updated_at = <datetime>$updated_at
	`, map[string]any{
		"key":           string(rec.Key),
		"job_id":        rec.ID,
		"athlete_name":  rec.AthleteName,
		"goals":         rec.Goals,
		"status":        string(rec.Status),
		"message":       rec.Message,
		"artifact_path": rec.ArtifactPath,
		"created_at":    rec.CreatedAt,
		"updated_at":    rec.UpdatedAt,
	})
	if err != nil {
		return fmt.Errorf("save job: %w", err)
	}
	return nil
}

// GetJob retrieves the mirrored record for a key. Returns nil if absent.
func (c *Client) GetJob(ctx context.Context, key job.Key) (*job.Record, error) {
	results, err := surrealdb.Query[[]jobRow](ctx, c.db, `
		SELECT * FROM type::record("job", $key)
	`, map[string]any{"key": string(key)})
	if err != nil {
		return nil, fmt.Errorf("get job: %w", err)
	}
	if results == nil || len(*results) == 0 || len((*results)[0].Result) == 0 {
		return nil, nil
	}
	rec := rowToRecord((*results)[0].Result[0])
	return &rec, nil
}

// ListJobs returns all mirrored records, most recently updated first.
func (c *Client) ListJobs(ctx context.Context) ([]job.Record, error) {
	results, err := surrealdb.Query[[]jobRow](ctx, c.db, `
		SELECT * FROM job ORDER BY updated_at DESC
	`, nil)
	if err != nil {
		return nil, fmt.Errorf("list jobs: %w", err)
	}
	if results == nil || len(*results) == 0 {
		return nil, nil
	}

	rows := (*results)[0].Result
	records := make([]job.Record, 0, len(rows))
	for _, row := range rows {
		records = append(records, rowToRecord(row))
	}
	return records, nil
}

func rowToRecord(row jobRow) job.Record {
	key, _ := row.ID.ID.(string)
	return job.Record{
		ID:           row.JobID,
		Key:          job.Key(key),
		AthleteName:  row.AthleteName,
		Goals:        row.Goals,
		Status:       job.Status(row.Status),
		Message:      row.Message,
		ArtifactPath: row.ArtifactPath,
		CreatedAt:    row.CreatedAt,
		UpdatedAt:    row.UpdatedAt,
	}
}
