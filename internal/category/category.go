package category

import "strings"

// Group classifies plan operators by the role they play.
type Group int

const (
	DataRetrieval Group = iota
	Join
	Aggregation
	Modification
	Utility
)

// Classify maps a node type to its operator group.
func Classify(nodeType string) Group {
	switch {
	case strings.Contains(nodeType, "Scan"):
		return DataRetrieval
	case strings.Contains(nodeType, "Join") || strings.Contains(nodeType, "Nested Loop"):
		return Join
	case containsAny(nodeType, "Aggregate", "Group", "SetOp", "WindowAgg", "Unique"):
		return Aggregation
	case containsAny(nodeType, "Insert", "Update", "Delete") || nodeType == "Merge":
		return Modification
	default:
		return Utility
	}
}

func containsAny(s string, subs ...string) bool {
	for _, sub := range subs {
		if strings.Contains(s, sub) {
			return true
		}
	}
	return false
}

// String returns the group name.
func (g Group) String() string {
	switch g {
	case DataRetrieval:
		return "data-retrieval"
	case Join:
		return "join"
	case Aggregation:
		return "aggregation"
	case Modification:
		return "modification"
	default:
		return "utility"
	}
}

// Color returns the markup color spec for the group.
func (g Group) Color() string {
	switch g {
	case DataRetrieval:
		return "blue"
	case Join:
		return "purple"
	case Aggregation:
		return "green"
	case Modification:
		return "red"
	default:
		return "bright_black"
	}
}

var icons = map[string]string{
	"Seq Scan":         "🔍",
	"Index Scan":       "📖",
	"Index Only Scan":  "📖",
	"Bitmap Heap Scan": "🧺",
	"Merge Join":       "🔀",
	"Sort":             "↕️",
	"Limit":            "🛑",
	"Materialize":      "📦",
	"Gather":           "🌐",
	"Hash":             "🏗️",
}

// Icon returns the display icon for a node type. A "Parallel " qualifier is
// ignored so parallel variants share their base operator's icon.
func Icon(nodeType string) string {
	name := strings.TrimPrefix(nodeType, "Parallel ")
	if icon, ok := icons[name]; ok {
		return icon
	}
	if strings.HasPrefix(name, "Nested Loop") {
		return "🔁"
	}
	if strings.HasPrefix(name, "Hash ") && strings.HasSuffix(name, " Join") {
		return "🔢"
	}
	switch Classify(nodeType) {
	case DataRetrieval:
		return "📂"
	case Join:
		return "🔗"
	case Aggregation:
		return "📊"
	case Modification:
		return "✏️"
	default:
		return "⚙️"
	}
}
