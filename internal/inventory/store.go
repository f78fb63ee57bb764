package inventory

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"strings"
	"time"
)

// WriteSnapshot stores snap as one session. The whole snapshot is written in a
// single transaction while the export lock is held.
func (s *Store) WriteSnapshot(ctx context.Context, snap Snapshot) error {
	if strings.TrimSpace(snap.SessionID) == "" {
		return errors.New("snapshot session id is empty")
	}
	if snap.CreatedAt.IsZero() {
		snap.CreatedAt = time.Now()
	}
	roots, err := json.Marshal(nonNil(snap.Roots))
	if err != nil {
		return fmt.Errorf("marshal roots: %w", err)
	}
	frameworkRoots, err := json.Marshal(nonNil(snap.FrameworkRoots))
	if err != nil {
		return fmt.Errorf("marshal framework roots: %w", err)
	}

	return s.withLock(ctx, func() error {
		return retryOnBusy(ctx, func() error {
			return s.writeSnapshotTx(ctx, snap, string(roots), string(frameworkRoots))
		})
	})
}

func (s *Store) writeSnapshotTx(ctx context.Context, snap Snapshot, roots, frameworkRoots string) error {
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("begin snapshot tx: %w", err)
	}
	defer func() { _ = tx.Rollback() }()

	if _, err := tx.ExecContext(ctx,
		`INSERT INTO sessions (id, created_at, roots_json, framework_roots_json) VALUES (?, ?, ?, ?)`,
		snap.SessionID,
		snap.CreatedAt.UTC().Format(time.RFC3339Nano),
		roots,
		frameworkRoots,
	); err != nil {
		return fmt.Errorf("insert session: %w", err)
	}

	insertAssembly, err := tx.PrepareContext(ctx,
		`INSERT INTO assemblies (
            session_id, path, name, version, culture, public_key_token, target_framework, framework
        ) VALUES (?, ?, ?, ?, ?, ?, ?, ?)`)
	if err != nil {
		return fmt.Errorf("prepare assembly insert: %w", err)
	}
	defer insertAssembly.Close()

	for _, asm := range snap.Assemblies {
		if _, err := insertAssembly.ExecContext(ctx,
			snap.SessionID,
			asm.Path,
			asm.Name,
			nullableString(asm.Version),
			nullableString(asm.Culture),
			nullableString(asm.PublicKeyToken),
			nullableString(asm.TargetFramework),
			boolToInt(asm.Framework),
		); err != nil {
			return fmt.Errorf("insert assembly %s: %w", asm.Path, err)
		}
	}

	insertIdentity, err := tx.PrepareContext(ctx,
		`INSERT INTO identities (session_id, identity, path) VALUES (?, ?, ?)`)
	if err != nil {
		return fmt.Errorf("prepare identity insert: %w", err)
	}
	defer insertIdentity.Close()

	for _, identity := range snap.Identities {
		if _, err := insertIdentity.ExecContext(ctx, snap.SessionID, identity.ID, identity.Path); err != nil {
			return fmt.Errorf("insert identity %q: %w", identity.ID, err)
		}
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("commit snapshot: %w", err)
	}
	return nil
}

// Sessions lists stored sessions, newest first.
func (s *Store) Sessions(ctx context.Context) ([]Session, error) {
	rows, err := s.db.QueryContext(ctx, `
        SELECT s.id, s.created_at, s.roots_json, s.framework_roots_json,
               (SELECT COUNT(1) FROM assemblies a WHERE a.session_id = s.id),
               (SELECT COUNT(1) FROM identities i WHERE i.session_id = s.id)
        FROM sessions s
        ORDER BY s.created_at DESC, s.id`)
	if err != nil {
		return nil, fmt.Errorf("list sessions: %w", err)
	}
	defer rows.Close()

	var sessions []Session
	for rows.Next() {
		var (
			session      Session
			createdRaw   string
			rootsRaw     string
			frameworkRaw string
		)
		if err := rows.Scan(&session.ID, &createdRaw, &rootsRaw, &frameworkRaw, &session.Assemblies, &session.Identities); err != nil {
			return nil, fmt.Errorf("scan session: %w", err)
		}
		if created, err := time.Parse(time.RFC3339Nano, createdRaw); err == nil {
			session.CreatedAt = created
		}
		if err := json.Unmarshal([]byte(rootsRaw), &session.Roots); err != nil {
			return nil, fmt.Errorf("decode roots for session %s: %w", session.ID, err)
		}
		if err := json.Unmarshal([]byte(frameworkRaw), &session.FrameworkRoots); err != nil {
			return nil, fmt.Errorf("decode framework roots for session %s: %w", session.ID, err)
		}
		sessions = append(sessions, session)
	}
	return sessions, rows.Err()
}

// Assemblies returns the assemblies recorded for a session, ordered by path.
func (s *Store) Assemblies(ctx context.Context, sessionID string) ([]Assembly, error) {
	rows, err := s.db.QueryContext(ctx, `
        SELECT path, name, version, culture, public_key_token, target_framework, framework
        FROM assemblies
        WHERE session_id = ?
        ORDER BY path`, sessionID)
	if err != nil {
		return nil, fmt.Errorf("list assemblies: %w", err)
	}
	defer rows.Close()

	var assemblies []Assembly
	for rows.Next() {
		var (
			asm       Assembly
			version   sql.NullString
			culture   sql.NullString
			token     sql.NullString
			framework sql.NullString
			inFrame   int
		)
		if err := rows.Scan(&asm.Path, &asm.Name, &version, &culture, &token, &framework, &inFrame); err != nil {
			return nil, fmt.Errorf("scan assembly: %w", err)
		}
		asm.Version = version.String
		asm.Culture = culture.String
		asm.PublicKeyToken = token.String
		asm.TargetFramework = framework.String
		asm.Framework = inFrame != 0
		assemblies = append(assemblies, asm)
	}
	return assemblies, rows.Err()
}

// Lookup returns the path recorded for an identity string in a session.
func (s *Store) Lookup(ctx context.Context, sessionID, id string) (string, bool, error) {
	var path string
	err := s.db.QueryRowContext(ctx,
		`SELECT path FROM identities WHERE session_id = ? AND identity = ?`,
		sessionID, id,
	).Scan(&path)
	if errors.Is(err, sql.ErrNoRows) {
		return "", false, nil
	}
	if err != nil {
		return "", false, fmt.Errorf("lookup identity: %w", err)
	}
	return path, true, nil
}

// DeleteSession removes a session and its rows.
func (s *Store) DeleteSession(ctx context.Context, sessionID string) error {
	return s.withLock(ctx, func() error {
		return retryOnBusy(ctx, func() error {
			_, err := s.db.ExecContext(ctx, `DELETE FROM sessions WHERE id = ?`, sessionID)
			return err
		})
	})
}

func nullableString(value string) any {
	if value == "" {
		return nil
	}
	return value
}

func boolToInt(value bool) int {
	if value {
		return 1
	}
	return 0
}

func nonNil(values []string) []string {
	if values == nil {
		return []string{}
	}
	return values
}
