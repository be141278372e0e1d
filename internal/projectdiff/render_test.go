package projectdiff

import (
	"strings"
	"testing"
)

func TestRenderGroupsByFile(t *testing.T) {
	e := newCtlEnv(t)
	baseA := fileLines("a", 30)
	baseB := fileLines("b", 30)
	e.modify("a.txt", baseA, changeRows(baseA, 10, 12))
	e.modify("b.txt", baseB, changeRows(baseB, 10, 12))
	e.rescan()

	var sb strings.Builder
	if err := e.pd.Render(&sb); err != nil {
		t.Fatalf("Render failed: %v", err)
	}
	out := sb.String()

	posA := strings.Index(out, "=== /proj/a.txt ===")
	posB := strings.Index(out, "=== /proj/b.txt ===")
	if posA < 0 || posB < 0 {
		t.Fatalf("missing file headers in output:\n%s", out)
	}
	if posA > posB {
		t.Error("files should render in path order")
	}
	if !strings.Contains(out, "@@ lines 8-15 @@") {
		t.Errorf("missing row-span header in output:\n%s", out)
	}
	if !strings.Contains(out, "a 10 changed") {
		t.Errorf("missing changed line in output:\n%s", out)
	}
}
