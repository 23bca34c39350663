package diag

import "testing"

func TestListSortAndFirstError(t *testing.T) {
	var l List
	l.Add(Errorf(DuplicateKey, Position{Offset: 20, Line: 3, Column: 1}, Position{}, "duplicate key %q", "a"))
	l.Add(Warnf(UnknownTag, Position{Offset: 2, Line: 1, Column: 3}, Position{}, "unknown tag"))
	l.Add(Errorf(BadIndentation, Position{Offset: 10, Line: 2, Column: 2}, Position{}, "bad indentation"))

	first, ok := l.FirstError()
	if !ok {
		t.Fatal("expected an error")
	}
	if first.Code != BadIndentation {
		t.Errorf("first error = %s, want %s", first.Code, BadIndentation)
	}

	l.Sort()
	want := []Code{UnknownTag, BadIndentation, DuplicateKey}
	for i, c := range want {
		if l[i].Code != c {
			t.Errorf("l[%d].Code = %s, want %s", i, l[i].Code, c)
		}
	}

	if got := len(l.Errors()); got != 2 {
		t.Errorf("len(Errors()) = %d, want 2", got)
	}
	if got := len(l.Warnings()); got != 1 {
		t.Errorf("len(Warnings()) = %d, want 1", got)
	}
	if !l.HasErrors() {
		t.Error("HasErrors() = false")
	}
}

func TestErrorfClampsEnd(t *testing.T) {
	pos := Position{Offset: 5, Line: 1, Column: 6}
	d := Errorf(UnexpectedToken, pos, Position{}, "x")
	if d.End != pos {
		t.Errorf("End = %+v, want %+v", d.End, pos)
	}
	if got, want := d.Error(), "x at line 1, column 6"; got != want {
		t.Errorf("Error() = %q, want %q", got, want)
	}
}

func TestWarningsOnlyHasNoErrors(t *testing.T) {
	var l List
	l.Add(Warnf(UnsupportedVersion, Start, Start, "version 1.1"))
	if l.HasErrors() {
		t.Error("HasErrors() = true for warnings only")
	}
	if _, ok := l.FirstError(); ok {
		t.Error("FirstError() found an error in a warning-only list")
	}
}
