package history

import (
	"fmt"
	"strconv"
	"strings"
)

// Resolver turns the shorthand accepted on the command line into stored
// conversation IDs.
type Resolver struct {
	store *Store
}

// NewResolver creates a resolver backed by the given store.
func NewResolver(store *Store) *Resolver {
	return &Resolver{store: store}
}

// Resolve maps a reference to a conversation ID. Forms are tried in order:
// the @last/@first aliases, a 1-based list position, a conversation ID
// (with or without its conv- prefix), and finally a case-insensitive title
// substring. Ambiguous substrings are an error rather than a guess.
func (r *Resolver) Resolve(ref string) (string, error) {
	ref = strings.TrimSpace(ref)
	if ref == "" {
		return "", fmt.Errorf("empty reference")
	}

	convs, err := r.store.ListConversations()
	if err != nil {
		return "", fmt.Errorf("failed to list conversations: %w", err)
	}
	if len(convs) == 0 {
		return "", fmt.Errorf("no conversations found")
	}

	if id, ok := resolveAlias(ref, convs); ok {
		return id, nil
	}

	if pos, err := strconv.Atoi(ref); err == nil {
		if pos < 1 || pos > len(convs) {
			return "", fmt.Errorf("index %d out of range (1-%d)", pos, len(convs))
		}
		return convs[pos-1].ID, nil
	}

	if id, ok := matchID(ref, convs); ok {
		return id, nil
	}
	if strings.HasPrefix(ref, "conv-") {
		// Looked like an ID but matched nothing; don't fall through to
		// title search.
		return "", fmt.Errorf("conversation not found: %s", ref)
	}

	return resolveTitle(ref, convs)
}

// resolveAlias handles @last and @first. The store lists conversations
// newest first.
func resolveAlias(ref string, convs []*Conversation) (string, bool) {
	switch strings.ToLower(ref) {
	case "@last":
		return convs[0].ID, true
	case "@first":
		return convs[len(convs)-1].ID, true
	}
	return "", false
}

// matchID matches a stored ID exactly, accepting the bare UUID without the
// conv- prefix the store adds.
func matchID(ref string, convs []*Conversation) (string, bool) {
	for _, conv := range convs {
		if conv.ID == ref || conv.ID == "conv-"+ref {
			return conv.ID, true
		}
	}
	return "", false
}

func resolveTitle(ref string, convs []*Conversation) (string, error) {
	needle := strings.ToLower(ref)
	var matches []*Conversation
	for _, conv := range convs {
		if strings.Contains(strings.ToLower(conv.Title), needle) {
			matches = append(matches, conv)
		}
	}

	switch len(matches) {
	case 0:
		return "", fmt.Errorf("no conversation matching '%s'", ref)
	case 1:
		return matches[0].ID, nil
	}

	titles := make([]string, len(matches))
	for i, m := range matches {
		titles[i] = "'" + m.Title + "'"
	}
	return "", fmt.Errorf("multiple conversations match '%s': %s. Use ID or be more specific",
		ref, strings.Join(titles, ", "))
}

// ResolveWithInfo resolves a reference and loads the full conversation.
func (r *Resolver) ResolveWithInfo(ref string) (*Conversation, error) {
	id, err := r.Resolve(ref)
	if err != nil {
		return nil, err
	}
	return r.store.GetConversation(id)
}

// ListAliases describes the supported reference forms for help text.
func ListAliases() string {
	return `Supported references:
  @last          Most recently modified consultation
  @first         First consultation in the list
  1, 2, 3        By index (1-based, from most recent)
  "text"         Search by title substring
  conv-...       Consultation ID (the conv- prefix is optional)`
}
