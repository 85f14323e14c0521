package scaffold

import "text/template"

var sqlTemplate = template.Must(template.New("sql").Parse(`-- {{.ID}}
-- Environment: {{.Environment}}

-- +seed Up
-- Write the statements that seed the data. End each statement with a semicolon.


-- +seed Down
-- Write the statements that remove the data seeded above.

`))

var goTemplate = template.Must(template.New("go").Parse(`package {{.Package}}

import (
	"context"

	"github.com/getpup/seeder"
	"github.com/getpup/seeder/discovery"
)

func init() {
	discovery.MustRegister("{{.ID}}", func() seeder.Unit { return {{.Type}}{} })
}

// {{.Type}} seeds {{.Name}} in the {{.Environment}} environment.
type {{.Type}} struct{}

// Apply seeds the data.
func ({{.Type}}) Apply(ctx context.Context, db seeder.Execer) error {
	return nil
}

// Reverse removes the data seeded by Apply.
func ({{.Type}}) Reverse(ctx context.Context, db seeder.Execer) error {
	return nil
}
`))
