package markup

import (
	"testing"

	"github.com/google/go-cmp/cmp"

	"git.home.luguber.info/inful/mdcms/internal/docmodel"
)

func TestOperatorResults(t *testing.T) {
	h2, err := Heading(2)
	if err != nil {
		t.Fatal(err)
	}

	tests := []struct {
		name string
		op   Operator
		text string
		r    docmodel.Range
		want Result
	}{
		{
			name: "link wraps selection",
			op:   LinkOperator{},
			text: "see docs",
			r:    docmodel.Span(4, 8),
			want: Result{
				Changes: []docmodel.Change{{From: 4, To: 8, Insert: "[docs](http://)"}},
				Ranges:  []docmodel.Range{{From: 11, To: 18}, {From: 19, To: 19}},
			},
		},
		{
			name: "link at caret",
			op:   LinkOperator{},
			text: "ab",
			r:    docmodel.Caret(1),
			want: Result{
				Changes: []docmodel.Change{{From: 1, To: 1, Insert: "[](http://)"}},
				Ranges:  []docmodel.Range{{From: 4, To: 11}, {From: 12, To: 12}},
			},
		},
		{
			name: "heading inserted on second line",
			op:   LinePrefix(h2),
			text: "one\ntwo",
			r:    docmodel.Span(5, 6),
			want: Result{
				Changes: []docmodel.Change{{From: 4, To: 4, Insert: "## "}},
				Ranges:  []docmodel.Range{{From: 8, To: 9}},
			},
		},
		{
			name: "alternate list marker removed",
			op:   LinePrefix(UnorderedList),
			text: "* item",
			r:    docmodel.Caret(1),
			want: Result{
				Changes: []docmodel.Change{{From: 0, To: 2}},
				Ranges:  []docmodel.Range{{From: 0, To: 0}},
			},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := tt.op.Apply(docmodel.New(tt.text), tt.r)
			if err != nil {
				t.Fatalf("Apply: %v", err)
			}
			if diff := cmp.Diff(tt.want, got); diff != "" {
				t.Errorf("result mismatch (-want +got):\n%s", diff)
			}
		})
	}
}
