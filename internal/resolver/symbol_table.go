// Package resolver provides scope management and symbol storage for the
// Kestrel compiler.
//
// A SymbolTable is a tree of scopes shared by two passes. The parser builds
// the tree in write mode; the analyser and later passes revisit the same
// tree in read mode, in the order the parser created it, without passing
// scope indices around.
package resolver

import (
	"errors"
	"fmt"

	"github.com/kestrel-lang/kestrel/internal/ast"
	"github.com/kestrel-lang/kestrel/internal/position"
)

var (
	ErrLocked          = errors.New("symbol table is locked")
	ErrDuplicateSymbol = errors.New("identifier already declared in this scope")
	ErrDuplicateScope  = errors.New("named scope already declared in this scope")
	ErrAtRoot          = errors.New("cannot leave the global scope")
	ErrWrongMode       = errors.New("operation not allowed in current mode")
	ErrNoScope         = errors.New("no such scope")
	ErrNoSymbol        = errors.New("no such symbol")
	ErrAlreadyTyped    = errors.New("symbol type already set")
)

// Handle is a stable reference to a symbol descriptor. Handles are never
// reused for a different symbol.
type Handle uint32

// InvalidHandle is returned when a symbol could not be added.
const InvalidHandle Handle = 0

// IsValid reports whether h can refer to a descriptor.
func (h Handle) IsValid() bool { return h != InvalidHandle }

// ScopeID represents a unique scope identifier.
type ScopeID uint32

// NoScope is the absent scope. The global scope is always 1.
const NoScope ScopeID = 0

// GlobalScope is the root of every table.
const GlobalScope ScopeID = 1

// TypeInfo is the resolved type stored in descriptors and named scopes.
// The type system implements it; the table only needs to print it.
type TypeInfo interface {
	String() string
}

// ScopeKind represents the kind of scope.
type ScopeKind int

const (
	ScopeKindGlobal ScopeKind = iota
	ScopeKindBlock
	ScopeKindStruct
	ScopeKindEnum
	ScopeKindModule
)

// String returns the string representation of ScopeKind.
func (sk ScopeKind) String() string {
	switch sk {
	case ScopeKindGlobal:
		return "global"
	case ScopeKindBlock:
		return "block"
	case ScopeKindStruct:
		return "struct"
	case ScopeKindEnum:
		return "enum"
	case ScopeKindModule:
		return "module"
	default:
		return "unknown"
	}
}

// Mode selects the traversal protocol.
type Mode int

const (
	// ModeWrite is used while parsing: scopes are created.
	ModeWrite Mode = iota
	// ModeRead is used by later passes: existing scopes are revisited.
	ModeRead
)

func (m Mode) String() string {
	if m == ModeRead {
		return "read"
	}
	return "write"
}

// Scope represents a lexical scope.
type Scope struct {
	ID     ScopeID
	Name   string // empty for anonymous scopes
	Kind   ScopeKind
	Parent ScopeID

	Anonymous []ScopeID
	Named     map[string]ScopeID
	Variables map[string]Handle

	// OwnerType is the type a named scope stands for, set by the analyser.
	OwnerType TypeInfo

	// SiblingIndex is the position among the parent's anonymous children,
	// or -1 for named scopes and the root.
	SiblingIndex int

	namedOrder []string
	varOrder   []string
}

// IsAnonymous reports whether the scope has no name.
func (s *Scope) IsAnonymous() bool { return s.SiblingIndex >= 0 }

// Descriptor describes one symbol.
type Descriptor struct {
	Handle Handle
	Name   string // internal name after reserved-identifier rewriting
	Source string // name as written
	Init   ast.NodeID
	Type   TypeInfo
	Attrs  ast.Attr
	Scope  ScopeID
	Pos    position.Position
	Valid  bool
}

// frame remembers where a read-mode visit came from.
type frame struct {
	scope  ScopeID
	cursor int
	named  bool
}

// SymbolTable manages symbol storage and scopes.
type SymbolTable struct {
	scopes  []*Scope      // index 0 unused
	symbols []*Descriptor // index 0 unused

	mode    Mode
	current ScopeID
	locked  bool

	// cursor is the index of the next anonymous child visit_scope enters.
	cursor int
	frames []frame
}

// NewSymbolTable creates a table in write mode positioned at the global scope.
func NewSymbolTable() *SymbolTable {
	st := &SymbolTable{
		scopes:  make([]*Scope, 1, 32),
		symbols: make([]*Descriptor, 1, 64),
	}
	st.newScope("", ScopeKindGlobal, NoScope, -1)
	st.current = GlobalScope
	return st
}

func (st *SymbolTable) newScope(name string, kind ScopeKind, parent ScopeID, sibling int) *Scope {
	s := &Scope{
		ID:           ScopeID(len(st.scopes)),
		Name:         name,
		Kind:         kind,
		Parent:       parent,
		Named:        make(map[string]ScopeID),
		Variables:    make(map[string]Handle),
		SiblingIndex: sibling,
	}
	st.scopes = append(st.scopes, s)
	return s
}

// Mode returns the current traversal mode.
func (st *SymbolTable) Mode() Mode { return st.mode }

// Current returns the scope the table is positioned in.
func (st *SymbolTable) Current() ScopeID { return st.current }

// Scope returns the scope with the given id, or nil.
func (st *SymbolTable) Scope(id ScopeID) *Scope {
	if id == NoScope || int(id) >= len(st.scopes) {
		return nil
	}
	return st.scopes[id]
}

// ScopeCount returns the number of scopes, the global scope included.
func (st *SymbolTable) ScopeCount() int { return len(st.scopes) - 1 }

// ===== Write mode =====

// CreateScope appends a new anonymous child to the current scope and enters it.
func (st *SymbolTable) CreateScope() (ScopeID, error) {
	if st.mode != ModeWrite {
		return NoScope, fmt.Errorf("create scope: %w", ErrWrongMode)
	}
	cur := st.scopes[st.current]
	s := st.newScope("", ScopeKindBlock, cur.ID, len(cur.Anonymous))
	cur.Anonymous = append(cur.Anonymous, s.ID)
	st.current = s.ID
	return s.ID, nil
}

// CreateNamedScope adds a named child to the current scope and enters it.
// The name must be unique among the current scope's named children.
func (st *SymbolTable) CreateNamedScope(name string, kind ScopeKind) (ScopeID, error) {
	if st.mode != ModeWrite {
		return NoScope, fmt.Errorf("create scope %q: %w", name, ErrWrongMode)
	}
	cur := st.scopes[st.current]
	if _, exists := cur.Named[name]; exists {
		return NoScope, fmt.Errorf("%q: %w", name, ErrDuplicateScope)
	}
	s := st.newScope(name, kind, cur.ID, -1)
	cur.Named[name] = s.ID
	cur.namedOrder = append(cur.namedOrder, name)
	st.current = s.ID
	return s.ID, nil
}

// ===== Read mode =====

// BeginRead switches to read mode and rewinds to the global scope.
func (st *SymbolTable) BeginRead() {
	st.mode = ModeRead
	st.current = GlobalScope
	st.cursor = 0
	st.frames = st.frames[:0]
	st.locked = false
}

// VisitScope enters the next anonymous child of the current scope that has
// not been visited yet.
func (st *SymbolTable) VisitScope() (ScopeID, error) {
	if st.mode != ModeRead {
		return NoScope, fmt.Errorf("visit scope: %w", ErrWrongMode)
	}
	cur := st.scopes[st.current]
	if st.cursor >= len(cur.Anonymous) {
		return NoScope, fmt.Errorf("visit scope %d of scope %d: %w", st.cursor, cur.ID, ErrNoScope)
	}
	next := cur.Anonymous[st.cursor]
	st.frames = append(st.frames, frame{scope: st.current, cursor: st.cursor})
	st.current = next
	st.cursor = 0
	return next, nil
}

// VisitNamedScope enters the named scope found first when searching the
// current scope and then each ancestor.
func (st *SymbolTable) VisitNamedScope(name string) (ScopeID, error) {
	if st.mode != ModeRead {
		return NoScope, fmt.Errorf("visit scope %q: %w", name, ErrWrongMode)
	}
	return st.visitNamed(name)
}

func (st *SymbolTable) visitNamed(name string) (ScopeID, error) {
	id, ok := st.LookupNamedScope(name)
	if !ok {
		return NoScope, fmt.Errorf("%q: %w", name, ErrNoScope)
	}
	st.frames = append(st.frames, frame{scope: st.current, cursor: st.cursor, named: true})
	st.current = id
	st.cursor = 0
	return id, nil
}

// VisitNamedScopeWithRestore runs fn positioned inside the named scope and
// restores the previous position and cursor afterwards, whatever fn does.
// It is allowed in both modes.
func (st *SymbolTable) VisitNamedScopeWithRestore(name string, fn func(id ScopeID) error) error {
	savedCurrent, savedCursor, savedFrames := st.current, st.cursor, len(st.frames)
	defer func() {
		st.current, st.cursor = savedCurrent, savedCursor
		st.frames = st.frames[:savedFrames]
	}()

	id, err := st.visitNamed(name)
	if err != nil {
		return err
	}
	return fn(id)
}

// LeaveScope ascends out of the current scope. In write mode it moves to the
// parent. In read mode an anonymous scope advances the parent's cursor past
// itself, and a named scope returns to wherever it was visited from.
func (st *SymbolTable) LeaveScope() error {
	cur := st.scopes[st.current]

	if st.mode == ModeWrite {
		if cur.Parent == NoScope {
			return ErrAtRoot
		}
		st.current = cur.Parent
		return nil
	}

	if len(st.frames) == 0 {
		return ErrAtRoot
	}
	f := st.frames[len(st.frames)-1]
	st.frames = st.frames[:len(st.frames)-1]
	st.current = f.scope
	if f.named {
		st.cursor = f.cursor
	} else {
		st.cursor = cur.SiblingIndex + 1
	}
	return nil
}

// ===== Symbols =====

// AddVariable registers d in the current scope and returns its handle. The
// name goes through the reserved-identifier table first. It fails while the
// table is locked or when the name already exists in the current scope.
func (st *SymbolTable) AddVariable(d Descriptor) (Handle, error) {
	if st.locked {
		return InvalidHandle, fmt.Errorf("add %q: %w", d.Name, ErrLocked)
	}

	internal, attrs := Rewrite(d.Name)
	if d.Source == "" {
		d.Source = d.Name
	}
	d.Name = internal
	d.Attrs |= attrs

	cur := st.scopes[st.current]
	if _, exists := cur.Variables[d.Name]; exists {
		return InvalidHandle, fmt.Errorf("%q: %w", d.Source, ErrDuplicateSymbol)
	}

	d.Handle = Handle(len(st.symbols))
	d.Scope = cur.ID
	d.Valid = true
	desc := d
	st.symbols = append(st.symbols, &desc)
	cur.Variables[d.Name] = d.Handle
	cur.varOrder = append(cur.varOrder, d.Name)
	return d.Handle, nil
}

// Lookup searches the current scope and then each ancestor for name.
func (st *SymbolTable) Lookup(name string) (*Descriptor, bool) {
	internal, _ := Rewrite(name)
	for id := st.current; id != NoScope; id = st.scopes[id].Parent {
		if h, ok := st.scopes[id].Variables[internal]; ok {
			if d := st.symbols[h]; d.Valid {
				return d, true
			}
		}
	}
	return nil, false
}

// LookupLocal searches only the current scope.
func (st *SymbolTable) LookupLocal(name string) (*Descriptor, bool) {
	return st.LookupIn(st.current, name)
}

// LookupIn searches only scope id.
func (st *SymbolTable) LookupIn(id ScopeID, name string) (*Descriptor, bool) {
	s := st.Scope(id)
	if s == nil {
		return nil, false
	}
	internal, _ := Rewrite(name)
	if h, ok := s.Variables[internal]; ok {
		if d := st.symbols[h]; d.Valid {
			return d, true
		}
	}
	return nil, false
}

// LookupHandle returns the descriptor for h.
func (st *SymbolTable) LookupHandle(h Handle) (*Descriptor, bool) {
	if h == InvalidHandle || int(h) >= len(st.symbols) {
		return nil, false
	}
	d := st.symbols[h]
	if !d.Valid {
		return nil, false
	}
	return d, true
}

// LookupNamedScope searches the named children of the current scope and
// then of each ancestor. It does not move the table.
func (st *SymbolTable) LookupNamedScope(name string) (ScopeID, bool) {
	return st.LookupNamedScopeFrom(st.current, name)
}

// LookupNamedScopeFrom is LookupNamedScope starting at scope from.
func (st *SymbolTable) LookupNamedScopeFrom(from ScopeID, name string) (ScopeID, bool) {
	for id := from; id != NoScope && int(id) < len(st.scopes); id = st.scopes[id].Parent {
		if child, ok := st.scopes[id].Named[name]; ok {
			return child, true
		}
	}
	return NoScope, false
}

// SetType fills in the type of a symbol whose type was unknown when it was
// added. A type can be set only once.
func (st *SymbolTable) SetType(h Handle, t TypeInfo) error {
	d, ok := st.LookupHandle(h)
	if !ok {
		return fmt.Errorf("handle %d: %w", h, ErrNoSymbol)
	}
	if d.Type != nil {
		return fmt.Errorf("%q: %w", d.Source, ErrAlreadyTyped)
	}
	d.Type = t
	return nil
}

// SetOwnerType records the type a named scope stands for.
func (st *SymbolTable) SetOwnerType(id ScopeID, t TypeInfo) error {
	s := st.Scope(id)
	if s == nil {
		return fmt.Errorf("scope %d: %w", id, ErrNoScope)
	}
	s.OwnerType = t
	return nil
}

// Invalidate logically deletes a symbol. Its handle stays reserved and every
// later lookup reports it as absent.
func (st *SymbolTable) Invalidate(h Handle) {
	if d, ok := st.LookupHandle(h); ok {
		d.Valid = false
	}
}

// Lock makes every AddVariable fail until Unlock.
func (st *SymbolTable) Lock() { st.locked = true }

// Unlock re-enables AddVariable.
func (st *SymbolTable) Unlock() { st.locked = false }

// IsLocked reports whether the table is locked.
func (st *SymbolTable) IsLocked() bool { return st.locked }

// Symbols returns the valid descriptors in handle order.
func (st *SymbolTable) Symbols() []*Descriptor {
	out := make([]*Descriptor, 0, len(st.symbols)-1)
	for _, d := range st.symbols[1:] {
		if d.Valid {
			out = append(out, d)
		}
	}
	return out
}

// Path returns a readable path of scope id, such as "global/Node/#0".
func (st *SymbolTable) Path(id ScopeID) string {
	s := st.Scope(id)
	if s == nil {
		return "?"
	}
	if s.Parent == NoScope {
		return "global"
	}
	seg := s.Name
	if s.IsAnonymous() {
		seg = fmt.Sprintf("#%d", s.SiblingIndex)
	}
	return st.Path(s.Parent) + "/" + seg
}
