// Package session persists chat sessions and their messages in an embedded
// lemon database under the config directory.
package session

import (
	"context"
	"fmt"
	"sort"
	"strings"
	"time"

	"github.com/denismitr/lemon"
	"github.com/denismitr/lemon/options"
	"github.com/google/uuid"
	"github.com/pkg/errors"
)

// DatasetRef records a dataset attached to a session.
type DatasetRef struct {
	Name    string    `json:"name"`
	Path    string    `json:"path"`
	Rows    int       `json:"rows"`
	Columns int       `json:"columns"`
	AddedAt time.Time `json:"added_at"`
}

// Session is one conversation with its attached datasets.
type Session struct {
	ID        string       `json:"id"`
	Title     string       `json:"title"`
	Model     string       `json:"model"`
	Datasets  []DatasetRef `json:"datasets,omitempty"`
	Messages  int          `json:"messages"`
	CreatedAt time.Time    `json:"created_at"`
	UpdatedAt time.Time    `json:"updated_at"`
}

// Message is one exchange turn. Charts lists artifact paths produced while
// answering.
type Message struct {
	SessionID string    `json:"session_id"`
	Seq       int       `json:"seq"`
	Role      string    `json:"role"` // "user" or "assistant"
	Content   string    `json:"content"`
	Charts    []string  `json:"charts,omitempty"`
	CreatedAt time.Time `json:"created_at"`
}

// Store wraps the lemon database holding sessions and messages.
type Store struct {
	db     *lemon.DB
	closer lemon.Closer
}

// ErrNotFound is returned when a session id or prefix matches nothing.
var ErrNotFound = errors.New("session not found")

func sessionKey(id string) string { return "session:" + id }

func messageKey(id string, seq int) string { return fmt.Sprintf("message:%s:%06d", id, seq) }

func messagePrefix(id string) string { return "message:" + id + ":" }

// keyRangeFor bounds a scan to keys starting with prefix. Neither bound is a
// real key (';' sorts right after ':'), so scan inclusivity does not matter.
func keyRangeFor(prefix string) *options.FindOptions {
	return options.Find().KeyRange(prefix, prefix[:len(prefix)-1]+";")
}

// Open opens (or creates) the session database at path.
func Open(path string) (*Store, error) {
	db, closer, err := lemon.New(path)
	if err != nil {
		return nil, errors.Wrapf(err, "open session store %s", path)
	}
	return &Store{db: db, closer: closer}, nil
}

// Close flushes and closes the underlying database.
func (s *Store) Close() error {
	if s.closer == nil {
		return nil
	}
	return s.closer()
}

// Create starts a new session and persists it.
func (s *Store) Create(ctx context.Context, title, model string) (*Session, error) {
	now := time.Now().UTC()
	sess := &Session{
		ID:        uuid.NewString(),
		Title:     strings.TrimSpace(title),
		Model:     model,
		CreatedAt: now,
		UpdatedAt: now,
	}
	if sess.Title == "" {
		sess.Title = "session " + now.Format("2006-01-02 15:04")
	}
	err := s.db.Update(ctx, func(tx *lemon.Tx) error {
		return tx.Insert(sessionKey(sess.ID), sess)
	})
	if err != nil {
		return nil, errors.Wrap(err, "create session")
	}
	return sess, nil
}

// Get loads a session by exact id or unique id prefix.
func (s *Store) Get(ctx context.Context, idOrPrefix string) (*Session, error) {
	if idOrPrefix == "" {
		return nil, errors.Wrap(ErrNotFound, "empty session id")
	}
	var sess *Session
	err := s.db.View(ctx, func(tx *lemon.Tx) error {
		doc, err := tx.Get(sessionKey(idOrPrefix))
		if err == nil {
			sess = &Session{}
			return doc.Json().Unmarshal(sess)
		}
		if !errors.Is(err, lemon.ErrKeyDoesNotExist) {
			return err
		}
		// Fall back to prefix matching across all sessions.
		all, err := scanSessions(ctx, tx)
		if err != nil {
			return err
		}
		var matches []*Session
		for i := range all {
			if strings.HasPrefix(all[i].ID, idOrPrefix) {
				matches = append(matches, &all[i])
			}
		}
		switch len(matches) {
		case 0:
			return errors.Wrapf(ErrNotFound, "%s", idOrPrefix)
		case 1:
			sess = matches[0]
			return nil
		default:
			return errors.Errorf("session id prefix %q is ambiguous (%d matches)", idOrPrefix, len(matches))
		}
	})
	if err != nil {
		return nil, err
	}
	return sess, nil
}

// List returns all sessions, most recently updated first.
func (s *Store) List(ctx context.Context) ([]Session, error) {
	var out []Session
	err := s.db.View(ctx, func(tx *lemon.Tx) error {
		var err error
		out, err = scanSessions(ctx, tx)
		return err
	})
	if err != nil {
		return nil, errors.Wrap(err, "list sessions")
	}
	sort.Slice(out, func(i, j int) bool { return out[i].UpdatedAt.After(out[j].UpdatedAt) })
	return out, nil
}

func scanSessions(ctx context.Context, tx *lemon.Tx) ([]Session, error) {
	var docs []lemon.Document
	if err := tx.Find(ctx, keyRangeFor("session:"), &docs); err != nil {
		return nil, err
	}
	out := make([]Session, 0, len(docs))
	for i := range docs {
		var sess Session
		if err := docs[i].Json().Unmarshal(&sess); err != nil {
			return nil, errors.Wrapf(err, "decode %s", docs[i].Key())
		}
		out = append(out, sess)
	}
	return out, nil
}

// AddDataset records a dataset attachment on the session.
func (s *Store) AddDataset(ctx context.Context, id string, ref DatasetRef) error {
	sess, err := s.Get(ctx, id)
	if err != nil {
		return err
	}
	if ref.AddedAt.IsZero() {
		ref.AddedAt = time.Now().UTC()
	}
	for i := range sess.Datasets {
		if sess.Datasets[i].Name == ref.Name {
			sess.Datasets[i] = ref
			return s.save(ctx, sess)
		}
	}
	sess.Datasets = append(sess.Datasets, ref)
	return s.save(ctx, sess)
}

// Append stores the next message of a session and bumps its counters.
func (s *Store) Append(ctx context.Context, id string, msg Message) (*Message, error) {
	sess, err := s.Get(ctx, id)
	if err != nil {
		return nil, err
	}
	msg.SessionID = sess.ID
	msg.Seq = sess.Messages + 1
	if msg.CreatedAt.IsZero() {
		msg.CreatedAt = time.Now().UTC()
	}
	sess.Messages = msg.Seq
	sess.UpdatedAt = time.Now().UTC()
	err = s.db.Update(ctx, func(tx *lemon.Tx) error {
		if err := tx.Insert(messageKey(sess.ID, msg.Seq), msg); err != nil {
			return err
		}
		if err := tx.Remove(sessionKey(sess.ID)); err != nil {
			return err
		}
		return tx.Insert(sessionKey(sess.ID), sess)
	})
	if err != nil {
		return nil, errors.Wrap(err, "append message")
	}
	return &msg, nil
}

// Messages returns a session's messages in order.
func (s *Store) Messages(ctx context.Context, id string) ([]Message, error) {
	sess, err := s.Get(ctx, id)
	if err != nil {
		return nil, err
	}
	prefix := messagePrefix(sess.ID)
	var out []Message
	err = s.db.View(ctx, func(tx *lemon.Tx) error {
		var docs []lemon.Document
		if err := tx.Find(ctx, keyRangeFor(prefix), &docs); err != nil {
			return err
		}
		for i := range docs {
			var m Message
			if err := docs[i].Json().Unmarshal(&m); err != nil {
				return errors.Wrapf(err, "decode %s", docs[i].Key())
			}
			out = append(out, m)
		}
		return nil
	})
	if err != nil {
		return nil, errors.Wrap(err, "load messages")
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Seq < out[j].Seq })
	return out, nil
}

// Clear deletes a session and all of its messages.
func (s *Store) Clear(ctx context.Context, id string) error {
	sess, err := s.Get(ctx, id)
	if err != nil {
		return err
	}
	prefix := messagePrefix(sess.ID)
	return s.db.Update(ctx, func(tx *lemon.Tx) error {
		var docs []lemon.Document
		if err := tx.Find(ctx, keyRangeFor(prefix), &docs); err != nil {
			return err
		}
		keys := []string{sessionKey(sess.ID)}
		for i := range docs {
			keys = append(keys, docs[i].Key())
		}
		return tx.Remove(keys...)
	})
}

func (s *Store) save(ctx context.Context, sess *Session) error {
	sess.UpdatedAt = time.Now().UTC()
	err := s.db.Update(ctx, func(tx *lemon.Tx) error {
		if err := tx.Remove(sessionKey(sess.ID)); err != nil {
			return err
		}
		return tx.Insert(sessionKey(sess.ID), sess)
	})
	return errors.Wrapf(err, "save session %s", sess.ID)
}
