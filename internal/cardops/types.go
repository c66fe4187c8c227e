package cardops

import (
	"time"

	"github.com/cardengine/cardengine/internal/models"
)

// CardEvent is the SSE-broker projection of a successful write. It is a
// thin alias of models.CardEvent kept local so callers of this package
// don't need to import internal/models just to receive events.
type CardEvent = models.CardEvent

func newEvent(kind models.EventKind, key string) CardEvent {
	return CardEvent{Kind: kind, Key: key, At: time.Now().UTC()}
}

// RelationInput is a caller-declared forward edge.
type RelationInput struct {
	Type   string
	Target string
}

// CodeLinkInput is a caller-declared code link.
type CodeLinkInput struct {
	Kind   string
	File   string
	Symbol string
}

// CreateInput is the full payload for Create.
type CreateInput struct {
	Slug        string
	Summary     string
	Status      models.Status // empty defaults to draft
	Body        string
	Keywords    []string
	Tags        []string
	Relations   []RelationInput
	CodeLinks   []CodeLinkInput
	Constraints []byte // opaque JSON, nil if absent
}

// UpdateFields carries the optional fields of Update. A nil pointer leaves
// the prior value untouched. The slice fields and Constraints take effect
// only when marked through their Set* method; a marked empty slice deletes
// the field, and an unmarked one is ignored whatever its value.
type UpdateFields struct {
	Summary     *string
	Body        *string
	Keywords    []string // applied only after SetKeywords; marked empty = delete
	Tags        []string
	Relations   []RelationInput
	CodeLinks   []CodeLinkInput
	Constraints []byte // nil = untouched unless constraintsSet, then nil = delete

	keywordsSet    bool
	tagsSet        bool
	relationsSet   bool
	codeLinksSet   bool
	constraintsSet bool
}

// SetConstraints marks Constraints as explicitly provided; a nil v
// deletes the field.
func (f *UpdateFields) SetConstraints(v []byte) { f.Constraints = v; f.constraintsSet = true }

// SetKeywords marks Keywords as explicitly provided (possibly empty,
// which deletes all keywords).
func (f *UpdateFields) SetKeywords(v []string) { f.Keywords = v; f.keywordsSet = true }

// SetTags marks Tags as explicitly provided.
func (f *UpdateFields) SetTags(v []string) { f.Tags = v; f.tagsSet = true }

// SetRelations marks Relations as explicitly provided.
func (f *UpdateFields) SetRelations(v []RelationInput) { f.Relations = v; f.relationsSet = true }

// SetCodeLinks marks CodeLinks as explicitly provided.
func (f *UpdateFields) SetCodeLinks(v []CodeLinkInput) { f.CodeLinks = v; f.codeLinksSet = true }

// Card is the full outward-facing representation of a card, assembled
// from the file plus the store's auxiliary tables.
type Card struct {
	Key         string
	Summary     string
	Status      models.Status
	Body        string
	Constraints []byte
	FilePath    string
	Keywords    []string
	Tags        []string
	Relations   []RelationInput
	CodeLinks   []CodeLinkInput
	CreatedAt   time.Time
	UpdatedAt   time.Time
}

// CardListItem is the lightweight shape returned by ListCards/SearchCards.
type CardListItem struct {
	Key       string
	Summary   string
	Status    models.Status
	UpdatedAt time.Time
}

// SyncFailure reports one file that bulkSync failed to sync.
type SyncFailure struct {
	FilePath string
	Error    string
}

// BulkSyncResult aggregates bulkSync across every scanned file.
type BulkSyncResult struct {
	Succeeded int
	Failures  []SyncFailure
}

// KeyMismatch is one row whose stored key disagrees with the key its
// filename derives.
type KeyMismatch struct {
	FilePath  string
	StoredKey string
	FileKey   string
}

// ValidateReport is the read-only diff of filesystem against the card
// repository. It never mutates either side.
type ValidateReport struct {
	StaleDBRows   []string // filePath of rows whose file no longer exists
	OrphanFiles   []string // *.card.md files with no row
	KeyMismatches []KeyMismatch
}

// GraphOptions configures GetRelationGraph.
type GraphOptions struct {
	MaxDepth  int // 0 returns an empty result; MaxDepthUnbounded means no limit
	Direction models.Direction
}

// MaxDepthUnbounded is the sentinel meaning "no depth limit".
const MaxDepthUnbounded = -1

// GraphNode is one visited card in a GetRelationGraph traversal.
type GraphNode struct {
	Key          string
	Depth        int
	RelationType string
	Direction    models.Direction
}

// CardContext is the bundle returned by GetCardContext.
type CardContext struct {
	Card            Card
	CodeLinks       []ResolvedCodeLink
	UpstreamCards   []Card
	DownstreamCards []Card
}

// ResolvedCodeLink pairs a stored code link with the symbol the indexer
// resolved for it, if any.
type ResolvedCodeLink struct {
	CodeLink CodeLinkInput
	Resolved *Symbol // nil if unresolved or no indexer configured
}

// LinkValidationIssue is one unresolved or unindexed code link found by
// ValidateCodeLinks.
type LinkValidationIssue struct {
	CodeLink CodeLinkInput
	Reason   string // "symbol-not-found" or "file-not-indexed"
}
