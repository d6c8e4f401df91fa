// Package resource addresses users, babies and entries as a tree rooted at the site root and
// decides who may act on each node.
//
// A request path such as /a@x.com/jill-smith/12 is traversed segment by segment: the root
// resolves users by email, a user resolves babies by slug and a baby resolves entries by id.
// Traversal stops at a view name, which must be the final segment.
package resource

import (
	"errors"
	"net/url"
	"slices"
	"strings"

	"github.com/babytracker/internal/db"
	"github.com/babytracker/internal/entry"
)

var (
	// ErrNotFound is returned when any segment of a path fails to resolve.
	ErrNotFound = errors.New("not found")
	// ErrForbidden is returned when a resolved path denies the requested permission.
	ErrForbidden = errors.New("forbidden")
)

// Finder loads the entities behind path segments. Every method returns nil, nil when nothing
// matches.
type Finder interface {
	FindUser(email string) (*db.User, error)
	FindBaby(userID uint, slug string) (*db.Baby, error)
	FindEntry(babyID, id uint) (*entry.Entry, error)
}

// Kind identifies a node type in the tree.
type Kind int

const (
	KindRoot Kind = iota
	KindUser
	KindBaby
	KindEntry
)

func (k Kind) String() string {
	switch k {
	case KindRoot:
		return "root"
	case KindUser:
		return "user"
	case KindBaby:
		return "baby"
	case KindEntry:
		return "entry"
	}
	return "unknown"
}

// ViewPrefix marks a segment as a view name at any level.
const ViewPrefix = "@@"

// Named views each node kind understands. A bare name (no prefix) is only a view where it is
// registered, so "entries" under a baby never collides with an entry id.
var views = map[Kind][]string{
	KindRoot: {"@@login", "@@logout", "@@signup"},
	KindBaby: {"entries", "@@chart"},
}

// Node is one resolved step of a path. Exactly the field matching Kind is set; ancestors are
// reachable through the Path, never through the node.
type Node struct {
	Kind    Kind
	Segment string
	User    *db.User
	Baby    *db.Baby
	Entry   *entry.Entry
}

// Path is a fully resolved traversal: the lineage from the root to the context node plus the
// view name, if any.
type Path struct {
	Nodes []Node
	View  string
}

// Context returns the deepest resolved node.
func (p Path) Context() Node {
	return p.Nodes[len(p.Nodes)-1]
}

// User returns the user on the path, or nil at the root.
func (p Path) User() *db.User {
	if len(p.Nodes) > 1 {
		return p.Nodes[1].User
	}
	return nil
}

// Baby returns the baby on the path, or nil above it.
func (p Path) Baby() *db.Baby {
	if len(p.Nodes) > 2 {
		return p.Nodes[2].Baby
	}
	return nil
}

// Entry returns the entry on the path, or nil above it.
func (p Path) Entry() *entry.Entry {
	if len(p.Nodes) > 3 {
		return p.Nodes[3].Entry
	}
	return nil
}

// Segments lists the path segments of the context node, excluding the view.
func (p Path) Segments() []string {
	out := make([]string, 0, len(p.Nodes)-1)
	for _, n := range p.Nodes[1:] {
		out = append(out, n.Segment)
	}
	return out
}

// URL returns the context node's address under prefix.
func (p Path) URL(prefix string) string {
	return URL(prefix, p.Segments()...)
}

// URL joins escaped segments under prefix. With no segments it returns the root address.
func URL(prefix string, segments ...string) string {
	var b strings.Builder
	b.WriteString(strings.TrimRight(prefix, "/"))
	b.WriteByte('/')
	for i, s := range segments {
		if i > 0 {
			b.WriteByte('/')
		}
		b.WriteString(url.PathEscape(s))
	}
	return b.String()
}

// UserURL returns the address of a user.
func UserURL(prefix string, user *db.User) string {
	return URL(prefix, user.Email)
}

// BabyURL returns the address of a baby owned by user.
func BabyURL(prefix string, user *db.User, baby *db.Baby) string {
	return URL(prefix, user.Email, baby.Slug)
}

// EntryURL returns the address of an entry of baby.
func EntryURL(prefix string, user *db.User, baby *db.Baby, e *entry.Entry) string {
	return URL(prefix, user.Email, baby.Slug, e.Segment())
}

// Root is the entry point of every traversal. It is built once at process start and bound to
// a Finder per unit of work with With.
type Root struct {
	finder Finder
}

// NewRoot returns a root resolving segments through finder.
func NewRoot(finder Finder) *Root {
	return &Root{finder: finder}
}

// With returns a root resolving through finder, typically a transaction-bound one.
func (r *Root) With(finder Finder) *Root {
	return &Root{finder: finder}
}

// SplitPath breaks a raw request path into its non-empty segments.
func SplitPath(raw string) []string {
	parts := strings.Split(raw, "/")
	out := parts[:0]
	for _, p := range parts {
		if p != "" {
			out = append(out, p)
		}
	}
	return out
}

// Traverse resolves segments from the root. Any unresolved step fails the whole traversal
// with ErrNotFound.
func (r *Root) Traverse(segments []string) (Path, error) {
	path := Path{Nodes: []Node{{Kind: KindRoot}}}

	for i, seg := range segments {
		current := path.Context()

		if isView(current.Kind, seg) {
			if i != len(segments)-1 || !hasView(current.Kind, seg) {
				return Path{}, ErrNotFound
			}
			path.View = seg
			return path, nil
		}

		next, err := r.child(current, seg)
		if err != nil {
			return Path{}, err
		}
		path.Nodes = append(path.Nodes, next)
	}
	return path, nil
}

func (r *Root) child(parent Node, seg string) (Node, error) {
	switch parent.Kind {
	case KindRoot:
		if !strings.Contains(seg, "@") {
			return Node{}, ErrNotFound
		}
		user, err := r.finder.FindUser(seg)
		if err != nil {
			return Node{}, err
		}
		if user == nil {
			return Node{}, ErrNotFound
		}
		return Node{Kind: KindUser, Segment: user.Email, User: user}, nil
	case KindUser:
		baby, err := r.finder.FindBaby(parent.User.ID, seg)
		if err != nil {
			return Node{}, err
		}
		if baby == nil {
			return Node{}, ErrNotFound
		}
		return Node{Kind: KindBaby, Segment: baby.Slug, Baby: baby}, nil
	case KindBaby:
		id, ok := entry.ParseID(seg)
		if !ok {
			return Node{}, ErrNotFound
		}
		e, err := r.finder.FindEntry(parent.Baby.ID, id)
		if err != nil {
			return Node{}, err
		}
		if e == nil {
			return Node{}, ErrNotFound
		}
		return Node{Kind: KindEntry, Segment: e.Segment(), Entry: e}, nil
	}
	return Node{}, ErrNotFound
}

func isView(kind Kind, seg string) bool {
	return strings.HasPrefix(seg, ViewPrefix) || hasView(kind, seg)
}

func hasView(kind Kind, seg string) bool {
	return slices.Contains(views[kind], seg)
}
