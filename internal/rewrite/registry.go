package rewrite

import (
	"github.com/DeusData/builder-migrate/internal/builder"
)

// Strategy rewrites one closure of a specific builder type.
type Strategy func(e *Emitter, c *builder.Closure) (string, error)

// Registry holds the required constructor fields of each builder type and
// the strategies of builders that are not "constructor plus setters".
type Registry struct {
	required   map[string][]string
	strategies map[string]Strategy
}

var defaultRequired = map[string][]string{
	"AddMember":                {"access_token"},
	"CreateApplicationCommand": {"name"},
	"CreateChannel":            {"name"},
	"CreateButton":             {"custom_id"},
	"CreateSelectMenu":         {"custom_id", "kind"},
	"CreateSelectMenuOption":   {"label", "value"},
	"CreateEmbedAuthor":        {"name"},
	"CreateEmbedFooter":        {"text"},
	"CreateModal":              {"custom_id", "title"},
	"CreateStageInstance":      {"channel_id", "topic"},
	"CreateThread":             {"name"},
	"CreateWebhook":            {"name"},
	"CreateQuickModal":         {"title"},
	"CreateCommandOption":      {"kind", "name", "description"},
	"CreateInputText":          {"style", "label", "custom_id"},
	"CreateScheduledEvent":     {"kind", "name", "scheduled_start_time"},
	"CreateSticker":            {"name", "tags", "description", "file"},
}

// NewRegistry returns the built-in table.
func NewRegistry() *Registry {
	r := &Registry{
		required:   make(map[string][]string, len(defaultRequired)),
		strategies: make(map[string]Strategy),
	}
	for ty, fields := range defaultRequired {
		r.required[ty] = fields
	}
	r.Register("CreateInteractionResponse", rewriteResponse)
	r.Register("CreateComponents", rewriteComponents)
	r.Register("CreateActionRow", rewriteRow)
	r.Register("CreateButton", rewriteButton)
	r.Register("CreateSelectMenu", rewriteSelectMenu)
	r.Register("CreateSelectMenuOptions", rewriteSelectOptions)
	return r
}

// Required returns the ordered constructor fields of builderType.
func (r *Registry) Required(builderType string) []string {
	return r.required[builderType]
}

// SetRequired replaces the required fields of builderType.
func (r *Registry) SetRequired(builderType string, fields []string) {
	r.required[builderType] = append([]string(nil), fields...)
}

// Register installs a strategy for builderType.
func (r *Registry) Register(builderType string, s Strategy) {
	r.strategies[builderType] = s
}

// Strategy returns the strategy registered for builderType.
func (r *Registry) Strategy(builderType string) (Strategy, bool) {
	s, ok := r.strategies[builderType]
	return s, ok
}
