package sqldf

import (
	"context"
	"database/sql"
	"log/slog"

	"github.com/google/uuid"

	"github.com/leapstack-labs/sqldf/pkg/adapter"
	"github.com/leapstack-labs/sqldf/pkg/core"
)

// session is one private in-memory engine, used for a single script and
// then discarded.
type session struct {
	id     string
	adp    core.Adapter
	logger *slog.Logger
}

func openSession(ctx context.Context, cfg core.AdapterConfig, logger *slog.Logger) (*session, error) {
	cfg.Path = ":memory:"
	adp, err := adapter.Open(ctx, cfg, logger)
	if err != nil {
		return nil, &SessionError{Op: "open", Err: err}
	}

	s := &session{id: uuid.NewString(), adp: adp}
	s.logger = logger.With(slog.String("session_id", s.id))
	s.logger.Debug("session opened", slog.String("engine", cfg.Type))
	return s, nil
}

func (s *session) close() error {
	if err := s.adp.Close(); err != nil {
		return &SessionError{Op: "close", Err: err}
	}
	s.logger.Debug("session closed")
	return nil
}

// load materializes every resolved table.
func (s *session) load(ctx context.Context, tables []ResolvedTable) error {
	for _, t := range tables {
		n, err := Materialize(ctx, s.adp, t.EngineName, t.Source)
		if err != nil {
			return err
		}
		s.logger.Debug("table materialized",
			slog.String("table", t.EngineName),
			slog.String("origin", t.Origin.String()),
			slog.String("shape", t.Source.Shape().String()),
			slog.Int("rows", n))
	}
	return nil
}

// run executes the statements in order and returns the result of the last.
// Earlier statements run for their side effects only.
func (s *session) run(ctx context.Context, stmts []Statement, params []Param) (*core.Frame, error) {
	if len(stmts) == 0 {
		return nil, &NoResultError{}
	}

	values := make(map[string]any, len(params))
	for _, p := range params {
		values[p.Name] = p.Value
	}

	last := len(stmts) - 1
	for _, st := range stmts[:last] {
		s.logger.Debug("executing statement", slog.Int("index", st.Index), slog.String("sql", st.SQL))
		if err := s.adp.Exec(ctx, st.SQL, bindArgs(st, values)...); err != nil {
			return nil, classifyEngineError(st.Index, st.SQL, err)
		}
	}

	st := stmts[last]
	s.logger.Debug("executing query", slog.Int("index", st.Index), slog.String("sql", st.SQL))
	rows, err := s.adp.Query(ctx, st.SQL, bindArgs(st, values)...)
	if err != nil {
		return nil, classifyEngineError(st.Index, st.SQL, err)
	}
	frame, err := marshalRows(rows.Rows)
	if err != nil {
		return nil, classifyEngineError(st.Index, st.SQL, err)
	}
	if len(frame.Columns) == 0 {
		return nil, &NoResultError{Statement: st.SQL}
	}
	s.logger.Debug("query returned", slog.Int("rows", frame.Len()), slog.Int("columns", len(frame.Columns)))
	return frame, nil
}

func bindArgs(st Statement, values map[string]any) []any {
	args := make([]any, len(st.Params))
	for i, name := range st.Params {
		args[i] = sql.Named(name, values[name])
	}
	return args
}
