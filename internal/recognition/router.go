package recognition

import "github.com/ironsheep/food-vision-mcp/internal/config"

// Router maps detector class names to category groups. It is read-only after
// construction and safe for concurrent use.
type Router struct {
	groups []config.Group
	index  map[string]string
}

// NewRouter builds a router from an ordered group list. When a class is
// listed in more than one group the first group wins; config.Validate
// rejects such tables, so this only matters for hand-built routers.
func NewRouter(groups []config.Group) *Router {
	r := &Router{
		groups: make([]config.Group, len(groups)),
		index:  make(map[string]string),
	}
	for i, g := range groups {
		classes := make([]string, len(g.Classes))
		copy(classes, g.Classes)
		r.groups[i] = config.Group{Name: g.Name, Classes: classes}

		for _, class := range classes {
			if _, taken := r.index[class]; !taken {
				r.index[class] = g.Name
			}
		}
	}
	return r
}

// Route returns the group containing className. ok is false when the class
// belongs to no group and classification should not be attempted.
func (r *Router) Route(className string) (group string, ok bool) {
	group, ok = r.index[className]
	return group, ok
}

// Groups returns the group names in table order.
func (r *Router) Groups() []string {
	names := make([]string, len(r.groups))
	for i, g := range r.groups {
		names[i] = g.Name
	}
	return names
}

// Members returns the classes routed to group.
func (r *Router) Members(group string) []string {
	for _, g := range r.groups {
		if g.Name == group {
			out := make([]string, len(g.Classes))
			copy(out, g.Classes)
			return out
		}
	}
	return nil
}
