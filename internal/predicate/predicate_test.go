package predicate

import (
	"errors"
	"testing"

	"github.com/JonMunkholm/rowstream/internal/core"
)

func user(id int, name, email any, age any, active any) core.Record {
	return core.NewRecord(
		[]string{"user_id", "name", "email", "age", "active"},
		[]any{id, name, email, age, active},
	)
}

func TestParse_Evaluate(t *testing.T) {
	ann := user(1, "ann", "ann@example.com", 30, true)
	bob := user(2, "bob", nil, "20", "false")

	tests := []struct {
		expr    string
		rec     core.Record
		want    bool
		wantErr bool
	}{
		{expr: "age > 25", rec: ann, want: true},
		{expr: "age > 25", rec: bob, want: false},
		{expr: "age >= 20 AND age <= 20", rec: bob, want: true},
		{expr: "age = 30.0", rec: ann, want: true},
		{expr: "age != 30", rec: ann, want: false},
		{expr: "age > -1", rec: bob, want: true},
		{expr: "name = 'bob'", rec: bob, want: true},
		{expr: `name = "ann"`, rec: ann, want: true},
		{expr: "name < 'b'", rec: ann, want: true},
		{expr: "email contains '@example'", rec: ann, want: true},
		{expr: "email = NULL", rec: bob, want: true},
		{expr: "email != null", rec: ann, want: true},
		{expr: "active = TRUE", rec: ann, want: true},
		{expr: "active = true", rec: bob, want: false},
		{expr: "active != FALSE", rec: bob, want: false},
		{expr: "NOT age > 25", rec: bob, want: true},
		{expr: "age > 100 OR name = 'ann'", rec: ann, want: true},
		{expr: "age > 25 and (name = 'x' or name = 'ann')", rec: ann, want: true},
		{expr: "age > 25 AND name = 'x' OR user_id = 2", rec: bob, want: true},
		{expr: "nickname = 'x' OR age > 25", rec: ann, want: true},
		{expr: "age > 25 OR nickname = 'x'", rec: ann, want: true},
		{expr: "email CONTAINS 'x' OR name = 'bob'", rec: bob, want: true},
		{expr: "nickname = 'x' AND age > 100", rec: ann, want: false},
		{expr: "nickname = 'x' OR age > 100", rec: ann, wantErr: true},
		{expr: "nickname = 'x' AND age > 25", rec: ann, wantErr: true},
		{expr: "email CONTAINS 'x'", rec: bob, wantErr: true},
		{expr: "height > 1", rec: ann, wantErr: true},
		{expr: "name > 1", rec: ann, wantErr: true},
		{expr: "missing = NULL", rec: ann, wantErr: true},
	}

	for _, tt := range tests {
		t.Run(tt.expr, func(t *testing.T) {
			pred, err := Parse(tt.expr)
			if err != nil {
				t.Fatalf("Parse(%q) error = %v", tt.expr, err)
			}
			got, err := pred(tt.rec)
			if tt.wantErr {
				var ce *core.ConversionError
				if !errors.As(err, &ce) {
					t.Errorf("error = %v, want *core.ConversionError", err)
				}
				return
			}
			if err != nil {
				t.Fatalf("evaluate error = %v", err)
			}
			if got != tt.want {
				t.Errorf("evaluate = %v, want %v", got, tt.want)
			}
		})
	}
}

func TestParse_Invalid(t *testing.T) {
	for _, expr := range []string{
		"",
		"age >",
		"age > 25 AND",
		"(age > 1",
		"age CONTAINS 5",
		"active > TRUE",
		"email < NULL",
		"25 > age",
	} {
		t.Run(expr, func(t *testing.T) {
			if _, err := Parse(expr); !errors.Is(err, core.ErrInvalidArgument) {
				t.Errorf("Parse(%q) error = %v, want ErrInvalidArgument", expr, err)
			}
		})
	}
}

func TestMustParse_Panics(t *testing.T) {
	defer func() {
		if recover() == nil {
			t.Error("MustParse did not panic")
		}
	}()
	MustParse("age >")
}
