package progress

import "testing"

func TestNoOp_DiscardsEverything(t *testing.T) {
	var r Reporter = NoOp{}
	r.Phase(TaskDownload, "downloading")
	r.Progress(5, 10, 0, "halfway")
}

func TestClicky_NilTaskIsSafe(t *testing.T) {
	c := NewClicky(nil)
	c.Phase(TaskVerify, "checking digest")
	c.Progress(1, 2, 0, "")
}

func TestTaskKind_Values(t *testing.T) {
	kinds := []TaskKind{TaskResolve, TaskDownload, TaskVerify, TaskIcon, TaskInstall}
	seen := map[TaskKind]bool{}
	for _, k := range kinds {
		if seen[k] {
			t.Fatalf("duplicate TaskKind value: %s", k)
		}
		seen[k] = true
	}
}
