package stream

import (
	"strconv"
	"strings"
	"sync"

	"github.com/cockroachdb/errors"
	"github.com/samber/lo"
	"go.uber.org/zap"

	"github.com/Neumenon/snapshot/snapshot"
)

// Session collects the snapshots taken by one test. Every Capture gets the
// next name in the sequence Test, Test.1, Test.2, ... Sessions share no
// state with each other; two sessions for the same test start from the same
// counter.
type Session struct {
	mu sync.Mutex

	name   string
	count  int
	blocks []*Block
	index  map[string]int

	opts   snapshot.Options
	logger *zap.Logger
}

// SessionOption configures a Session.
type SessionOption func(*Session)

// WithSerializerOptions sets the options every capture is serialized with.
func WithSerializerOptions(opts snapshot.Options) SessionOption {
	return func(s *Session) {
		s.opts = opts
	}
}

// WithLogger sets the session logger (default: no-op).
func WithLogger(logger *zap.Logger) SessionOption {
	return func(s *Session) {
		s.logger = logger
	}
}

// NewSession creates a session for the named test.
func NewSession(testName string, opts ...SessionOption) *Session {
	s := &Session{
		name:   testName,
		index:  make(map[string]int),
		opts:   snapshot.DefaultOptions(),
		logger: zap.NewNop(),
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// Name returns the test name.
func (s *Session) Name() string {
	return s.name
}

// Capture serializes v into the next block of the session.
func (s *Session) Capture(v any) *Block {
	body := snapshot.SerializeWithOptions(v, s.opts)

	s.mu.Lock()
	defer s.mu.Unlock()

	name := s.blockName(s.count)
	s.count++

	b := &Block{Name: name, Body: body}
	s.index[name] = len(s.blocks)
	s.blocks = append(s.blocks, b)

	s.logger.Debug("snapshot captured",
		zap.String("name", name), zap.Int("bytes", len(body)))
	return b
}

// Index returns the number of captures taken so far, which is also the
// index the next capture will be named with.
func (s *Session) Index() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.count
}

// Blocks returns the captured blocks in capture order.
func (s *Session) Blocks() []*Block {
	s.mu.Lock()
	defer s.mu.Unlock()
	return append([]*Block(nil), s.blocks...)
}

// Block returns the captured block with the given name.
func (s *Session) Block(name string) (*Block, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	i, ok := s.index[name]
	if !ok {
		return nil, false
	}
	return s.blocks[i], true
}

func (s *Session) blockName(i int) string {
	if i == 0 {
		return s.name
	}
	return s.name + "." + strconv.Itoa(i)
}

// ============================================================
// Verification
// ============================================================

// ErrSnapshotMismatch is returned by Verify when captures differ from the
// stored document.
var ErrSnapshotMismatch = errors.New("snapshot mismatch")

// Verify compares the captured blocks with a stored document. Blocks the
// document does not contain and blocks whose body differs are reported;
// blocks of other tests are ignored.
func (s *Session) Verify(doc *Document) error {
	var missing, changed []string
	for _, b := range s.Blocks() {
		stored, ok := doc.Find(b.Name)
		switch {
		case !ok:
			missing = append(missing, b.Name)
		case stored.Digest() != b.Digest():
			changed = append(changed, b.Name)
		}
	}
	if len(missing) == 0 && len(changed) == 0 {
		return nil
	}

	s.logger.Debug("snapshot mismatch",
		zap.Strings("missing", missing), zap.Strings("changed", changed))

	var parts []string
	if len(missing) > 0 {
		parts = append(parts, "missing: "+strings.Join(missing, ", "))
	}
	if len(changed) > 0 {
		parts = append(parts, "changed: "+strings.Join(changed, ", "))
	}
	return errors.Wrapf(ErrSnapshotMismatch, "%s", strings.Join(parts, "; "))
}

// Unused returns the names of the document's blocks that belong to this
// test but were not captured in this session.
func (s *Session) Unused(doc *Document) []string {
	s.mu.Lock()
	defer s.mu.Unlock()
	return lo.Filter(doc.Names(), func(name string, _ int) bool {
		_, captured := s.index[name]
		return !captured && s.owns(name)
	})
}

func (s *Session) owns(name string) bool {
	if name == s.name {
		return true
	}
	suffix, ok := strings.CutPrefix(name, s.name+".")
	if !ok {
		return false
	}
	_, err := strconv.Atoi(suffix)
	return err == nil
}
