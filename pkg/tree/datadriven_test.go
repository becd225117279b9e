package tree

import (
	"fmt"
	"strconv"
	"strings"
	"testing"

	"github.com/cockroachdb/datadriven"
	"github.com/cockroachdb/errors"
	"github.com/stretchr/testify/require"
)

// errorKind maps a model error to a stable label for golden output.
func errorKind(err error) string {
	switch {
	case errors.Is(err, ErrRootRemoval):
		return "root-removal"
	case errors.Is(err, ErrCyclicMove):
		return "cyclic-move"
	case errors.Is(err, ErrInvalidParent):
		return "invalid-parent"
	case errors.Is(err, ErrNotFound):
		return "not-found"
	case errors.Is(err, ErrReentrantMutation):
		return "reentrant"
	case errors.Is(err, ErrStructure):
		return "structure"
	}
	return err.Error()
}

func formatTree(m *Model[string]) string {
	var b strings.Builder
	for _, n := range m.Nodes() {
		fmt.Fprintf(&b, "%s%s #%d\n", strings.Repeat("  ", n.Depth+1), n.Name, n.ID)
	}
	return b.String()
}

func formatRows(rows []Row[string]) string {
	if len(rows) == 0 {
		return "<empty>\n"
	}
	var b strings.Builder
	for _, r := range rows {
		marker := "•"
		switch {
		case r.Expanded:
			marker = "▾"
		case r.HasChildren:
			marker = "▸"
		}
		fmt.Fprintf(&b, "%s%s %s #%d\n", strings.Repeat("  ", r.Depth), marker, r.Name, r.ID)
	}
	return b.String()
}

// parseElements reads "id depth name" lines.
func parseElements(t *testing.T, input string) []Element[string] {
	var elems []Element[string]
	for _, line := range strings.Split(strings.TrimSpace(input), "\n") {
		if line = strings.TrimSpace(line); line == "" {
			continue
		}
		fields := strings.Fields(line)
		require.GreaterOrEqual(t, len(fields), 2, "line %q", line)
		id, err := strconv.Atoi(fields[0])
		require.NoError(t, err)
		depth, err := strconv.Atoi(fields[1])
		require.NoError(t, err)
		name := strings.Join(fields[2:], " ")
		elems = append(elems, Element[string]{ID: id, Depth: depth, Payload: name})
	}
	return elems
}

func idList(ids []int) string {
	if len(ids) == 0 {
		return "<none>\n"
	}
	parts := make([]string, len(ids))
	for i, id := range ids {
		parts[i] = strconv.Itoa(id)
	}
	return strings.Join(parts, " ") + "\n"
}

// TestModelScripts runs the scripted scenarios in testdata/model.
func TestModelScripts(t *testing.T) {
	var m *Model[string]
	notifications := 0

	datadriven.RunTest(t, "testdata/model", func(t *testing.T, d *datadriven.TestData) string {
		if d.Cmd != "init" {
			require.NotNil(t, m, "init must come first")
		}

		switch d.Cmd {
		case "init":
			var err error
			m, err = New(parseElements(t, d.Input),
				WithNamer(identity),
				WithInvariantChecks[string](true),
				WithChangeHandler[string](func() { notifications++ }))
			if err != nil {
				return fmt.Sprintf("error: %s\n", errorKind(err))
			}
			notifications = 0
			return formatTree(m)

		case "tree":
			return formatTree(m)

		case "rows":
			var expanded []int
			var query string
			d.MaybeScanArgs(t, "expanded", &expanded)
			d.MaybeScanArgs(t, "query", &query)
			set := make(map[int]bool, len(expanded))
			for _, id := range expanded {
				set[id] = true
			}
			isExpanded := func(id int) bool { return set[id] }
			if d.HasArg("all") {
				isExpanded = nil
			}
			return formatRows(m.GetVisibleRows(isExpanded, query))

		case "add":
			var parentID, index int
			d.ScanArgs(t, "parent", &parentID)
			d.MaybeScanArgs(t, "index", &index)
			payloads := strings.Fields(d.Input)
			parent, _ := m.Find(parentID)
			if _, err := m.AddElements(payloads, parent, index); err != nil {
				return fmt.Sprintf("error: %s\n", errorKind(err))
			}
			return formatTree(m)

		case "remove":
			var ids []int
			d.ScanArgs(t, "ids", &ids)
			if err := m.RemoveElements(ids); err != nil {
				return fmt.Sprintf("error: %s\n", errorKind(err))
			}
			return formatTree(m)

		case "move":
			var parentID, index int
			var ids []int
			d.ScanArgs(t, "parent", &parentID)
			d.ScanArgs(t, "index", &index)
			d.ScanArgs(t, "ids", &ids)
			parent, _ := m.Find(parentID)
			if err := m.MoveElements(parent, index, ids); err != nil {
				return fmt.Sprintf("error: %s\n", errorKind(err))
			}
			return formatTree(m)

		case "ancestors":
			var id int
			d.ScanArgs(t, "id", &id)
			ids, err := m.GetAncestorIDs(id)
			if err != nil {
				return fmt.Sprintf("error: %s\n", errorKind(err))
			}
			return idList(ids)

		case "expandable":
			var id int
			d.ScanArgs(t, "id", &id)
			ids, err := m.GetIDsOfExpandableDescendants(id)
			if err != nil {
				return fmt.Sprintf("error: %s\n", errorKind(err))
			}
			return idList(ids)

		case "notifications":
			return fmt.Sprintf("%d\n", notifications)

		default:
			d.Fatalf(t, "unknown command %s", d.Cmd)
			return ""
		}
	})
}
