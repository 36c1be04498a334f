package graph

import (
	"fmt"
	"strings"

	"github.com/aretw0/portico/pkg/domain"
)

// GraphOverlay contains dynamic state data to visualize on the graph.
type GraphOverlay struct {
	ActivePartition domain.PartitionKey
	Report          *domain.ValidationReport
}

// GenerateMermaid produces a Mermaid flowchart of the portal graph.
// Each partition is a subgraph and each portal a node inside it:
// - Connected portal: ((Circle))
// - Disconnected portal: [Rectangle]
// - Unresolved destination: {{Hexagon}} outside any subgraph
// Links into another partition are dotted.
// It also applies overlay styles (Active/Issue) if provided.
func GenerateMermaid(specs []domain.PartitionSpec, overlay *GraphOverlay) string {
	var sb strings.Builder
	sb.WriteString("graph LR\n")

	defined := make(map[domain.Destination]bool)
	for _, spec := range specs {
		for _, p := range spec.Portals {
			defined[domain.Destination{Partition: spec.Key, ID: p.ID}] = true
		}
	}

	var edges []string
	missing := make(map[domain.Destination]bool)
	var missingOrder []domain.Destination

	for _, spec := range specs {
		safePartition := sanitizeMermaidID(string(spec.Key))
		title := string(spec.Key)
		if spec.Description != "" {
			title = fmt.Sprintf("%s <br/> %s", spec.Key, escapeLabel(spec.Description))
		}
		fmt.Fprintf(&sb, "    subgraph %s[\"%s\"]\n", safePartition, title)

		declared := make(map[int]bool)
		for _, p := range spec.Portals {
			from := domain.Destination{Partition: spec.Key, ID: p.ID}
			safeID := portalID(from)

			// Mermaid merges nodes by id; duplicates share one node.
			if !declared[p.ID] {
				declared[p.ID] = true
				opener, closer := "((", "))"
				if p.Destination.IsEmpty() {
					opener, closer = "[", "]"
				}
				fmt.Fprintf(&sb, "        %s%s\"#%d\"%s\n", safeID, opener, p.ID, closer)
			}

			if p.Destination.IsEmpty() {
				continue
			}
			if !defined[p.Destination] && !missing[p.Destination] {
				missing[p.Destination] = true
				missingOrder = append(missingOrder, p.Destination)
			}

			arrow := "-->"
			if p.Destination.Partition != spec.Key {
				arrow = "-.->"
			}
			edges = append(edges, fmt.Sprintf("    %s %s %s\n", safeID, arrow, portalID(p.Destination)))
		}
		sb.WriteString("    end\n")
	}

	for _, dest := range missingOrder {
		fmt.Fprintf(&sb, "    %s{{\"%s ?\"}}\n", portalID(dest), dest)
	}
	for _, e := range edges {
		sb.WriteString(e)
	}

	if len(missingOrder) > 0 {
		sb.WriteString("\n    classDef missing fill:#ffcdd2,stroke:#b71c1c,stroke-dasharray:4 2,color:#000;\n")
		for _, dest := range missingOrder {
			fmt.Fprintf(&sb, "    class %s missing;\n", portalID(dest))
		}
	}

	// Apply Overlay Styles
	if overlay != nil {
		sb.WriteString("\n    %% Overlay Styles\n")
		// Force black text (color:#000) for high-contrast on light backgrounds, regardless of theme (Light/Dark)
		sb.WriteString("    classDef active fill:#e1f5fe,stroke:#01579b,stroke-width:2px,color:#000;\n")
		sb.WriteString("    classDef issue fill:#ffeb3b,stroke:#f57f17,stroke-width:3px,color:#000;\n")

		if !overlay.ActivePartition.IsEmpty() {
			fmt.Fprintf(&sb, "    class %s active;\n", sanitizeMermaidID(string(overlay.ActivePartition)))
		}

		if overlay.Report != nil {
			flagged := make(map[string]bool)
			for _, pr := range overlay.Report.Partitions {
				for _, is := range pr.Issues {
					safeID := portalID(domain.Destination{Partition: pr.Partition, ID: is.PortalID})
					if !flagged[safeID] {
						flagged[safeID] = true
						fmt.Fprintf(&sb, "    class %s issue;\n", safeID)
					}
				}
			}
		}
	}

	return sb.String()
}

func portalID(d domain.Destination) string {
	return fmt.Sprintf("%s__%d", sanitizeMermaidID(string(d.Partition)), d.ID)
}

func escapeLabel(s string) string {
	return strings.ReplaceAll(s, "\"", "'")
}

func sanitizeMermaidID(id string) string {
	s := strings.ReplaceAll(id, ".", "_")
	s = strings.ReplaceAll(s, "-", "_")
	s = strings.ReplaceAll(s, "/", "_")
	s = strings.ReplaceAll(s, "\\", "_")
	s = strings.ReplaceAll(s, " ", "_")
	return s
}
