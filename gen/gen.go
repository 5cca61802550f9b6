// Package gen generates the Go entity types of a model. Every concrete
// entity gets one file holding its struct, the static accessor table the
// provider reads and writes properties through, and typed relation
// helpers. A factories file lists them all for provider.WithEntities.
package gen

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"go/token"
	"os"
	"path/filepath"
	"runtime"
	"sort"

	"github.com/dave/jennifer/jen"
	"golang.org/x/sync/errgroup"

	"github.com/airagroup/dobee"
	"github.com/airagroup/dobee/naming"
	"github.com/airagroup/dobee/relation"
	"github.com/airagroup/dobee/schema"
)

const (
	entityPkg = "github.com/airagroup/dobee/entity"
	header    = "Code generated by dobee. DO NOT EDIT."
)

// Config of one generation run.
type Config struct {
	// Package is the name of the generated package.
	Package string
	// Target is the output directory. It is created when missing.
	Target string
	// Workers bounds the files rendered in parallel. Defaults to GOMAXPROCS.
	Workers int
}

func (c Config) validate() error {
	switch {
	case c.Package == "":
		return errors.New("dobee/gen: missing package name")
	case !token.IsIdentifier(c.Package):
		return fmt.Errorf("dobee/gen: invalid package name %q", c.Package)
	case c.Target == "":
		return errors.New("dobee/gen: missing target directory")
	}
	return nil
}

// Generate writes the entity files of model into cfg.Target and returns
// their paths, sorted.
func Generate(ctx context.Context, model *schema.Model, cfg Config) ([]string, error) {
	if err := cfg.validate(); err != nil {
		return nil, err
	}
	files, err := Render(model, cfg.Package)
	if err != nil {
		return nil, err
	}
	if err := os.MkdirAll(cfg.Target, 0o755); err != nil {
		return nil, fmt.Errorf("dobee/gen: create target directory: %w", err)
	}
	workers := cfg.Workers
	if workers <= 0 {
		workers = runtime.GOMAXPROCS(0)
	}
	var (
		paths  = make([]string, 0, len(files))
		eg, gc = errgroup.WithContext(ctx)
	)
	eg.SetLimit(workers)
	for name, f := range files {
		path := filepath.Join(cfg.Target, name)
		paths = append(paths, path)
		eg.Go(func() error {
			select {
			case <-gc.Done():
				return gc.Err()
			default:
				return write(path, f)
			}
		})
	}
	if err := eg.Wait(); err != nil {
		return nil, err
	}
	sort.Strings(paths)
	return paths, nil
}

func write(path string, f *jen.File) error {
	var buf bytes.Buffer
	if err := f.Render(&buf); err != nil {
		return fmt.Errorf("dobee/gen: render %s: %w", filepath.Base(path), err)
	}
	if err := os.WriteFile(path, buf.Bytes(), 0o644); err != nil {
		return fmt.Errorf("dobee/gen: write %s: %w", path, err)
	}
	return nil
}

// Render returns the files of model by file name, without writing them.
func Render(model *schema.Model, pkg string) (map[string]*jen.File, error) {
	files := make(map[string]*jen.File)
	var concrete []string
	for _, name := range model.Names() {
		if model.IsAbstract(name) {
			continue
		}
		f, err := entityFile(model, pkg, name)
		if err != nil {
			return nil, err
		}
		files[naming.Underscore(name)+".go"] = f
		concrete = append(concrete, name)
	}
	files["factories.go"] = factoriesFile(pkg, concrete)
	return files, nil
}

// TypeName returns the Go type generated for an entity.
func TypeName(name string) string { return naming.Camelize(naming.Underscore(name)) }

// FieldName returns the struct field generated for a property.
func FieldName(property string) string { return naming.UpperFirst(property) }

func newFile(pkg string) *jen.File {
	f := jen.NewFile(pkg)
	f.HeaderComment(header)
	f.ImportName(entityPkg, "entity")
	return f
}

func entityFile(model *schema.Model, pkg, name string) (*jen.File, error) {
	props, err := model.Properties(name)
	if err != nil {
		return nil, err
	}
	var (
		f       = newFile(pkg)
		typ     = TypeName(name)
		table   = naming.LowerFirst(typ) + "Accessors"
		pk      = model.PrimaryKey(name)
		fields  []jen.Code
		entries []jen.Code
		soft    = model.IsSoftDeletable(name) && !model.HasProperty(name, "deleted")
	)
	members := make(map[string]string)
	fields = append(fields, jen.Qual(entityPkg, "Base"))
	for _, p := range props {
		if p.Name == pk {
			continue
		}
		goType, err := fieldType(p.Type)
		if err != nil {
			return nil, fmt.Errorf("dobee/gen: %s.%s: %w", name, p.Name, err)
		}
		field := FieldName(p.Name)
		if err := claim(members, field, "property "+p.Name); err != nil {
			return nil, fmt.Errorf("dobee/gen: %s: %w", name, err)
		}
		fields = append(fields, jen.Id(field).Add(goType))
		entries = append(entries, jen.Qual(entityPkg, "Field").Call(
			jen.Lit(p.Name),
			jen.Func().Params(jen.Id("e").Op("*").Id(typ)).Add(goType).Block(jen.Return(jen.Id("e").Dot(field))),
			jen.Func().Params(jen.Id("e").Op("*").Id(typ), jen.Id("v").Add(goType)).Block(jen.Id("e").Dot(field).Op("=").Id("v")),
		))
	}
	if soft {
		fields = append(fields, jen.Id("Deleted").Bool())
		if err := claim(members, "Deleted", "the soft-delete flag"); err != nil {
			return nil, fmt.Errorf("dobee/gen: %s: %w", name, err)
		}
	}
	for _, rel := range model.Relations(name, false, true) {
		for _, h := range relation.Handles(rel) {
			method := naming.UpperFirst(h.Name)
			err := claim(members, method, "relation "+h.Name)
			if err == nil && !h.Many {
				err = claim(members, "Set"+method, "relation "+h.Name)
			}
			if err != nil {
				return nil, dobee.NewRelationError(name, rel.Target, err.Error())
			}
		}
	}

	f.Commentf("%s is the %s entity.", typ, name)
	f.Type().Id(typ).Struct(fields...)
	f.Var().Id(table).Op("=").Qual(entityPkg, "NewAccessors").Custom(callList, entries...)

	f.Comment("EntityName returns the model name of the entity.")
	f.Func().Params(jen.Op("*").Id(typ)).Id("EntityName").Params().String().Block(jen.Return(jen.Lit(name)))
	f.Comment("Accessors returns the property accessor table.")
	f.Func().Params(jen.Op("*").Id(typ)).Id("Accessors").Params().Op("*").Qual(entityPkg, "Accessors").Block(jen.Return(jen.Id(table)))
	if soft {
		f.Func().Params(jen.Id("e").Op("*").Id(typ)).Id("SoftDelete").Params().Block(jen.Id("e").Dot("Deleted").Op("=").True())
		f.Func().Params(jen.Id("e").Op("*").Id(typ)).Id("IsDeleted").Params().Bool().Block(jen.Return(jen.Id("e").Dot("Deleted")))
	}
	for _, rel := range model.Relations(name, false, true) {
		for _, h := range relation.Handles(rel) {
			relationHelpers(f, typ, h)
		}
	}
	return f, nil
}

// reserved are the members every generated type has: the promoted methods
// of entity.Base and the methods emitted for each entity.
var reserved = map[string]bool{
	"Base": true, "EntityBase": true, "PrimaryKey": true, "SetPrimaryKey": true, "IsNew": true,
	"One": true, "SetOne": true, "Many": true, "SetMany": true, "Handles": true,
	"Blame": true, "SetBlame": true, "History": true, "SetHistory": true,
	"EntityName": true, "Accessors": true, "SoftDelete": true, "IsDeleted": true,
}

// claim records that member is generated for owner. Generated members must
// not shadow a reserved one or each other.
func claim(members map[string]string, member, owner string) error {
	if reserved[member] {
		return fmt.Errorf("%s generates %s, which is reserved", owner, member)
	}
	if prev, ok := members[member]; ok {
		return fmt.Errorf("%s generates %s, already generated for %s", owner, member, prev)
	}
	members[member] = owner
	return nil
}

// relationHelpers emits the accessors of one relation handle. Collections
// start empty on transient instances so members can be added before the
// first save.
func relationHelpers(f *jen.File, typ string, h relation.Handle) {
	method := naming.UpperFirst(h.Name)
	recv := jen.Id("e").Op("*").Id(typ)
	if h.Many {
		f.Commentf("%s returns the %s collection.", method, h.Name)
		f.Func().Params(recv).Id(method).Params().Op("*").Qual(entityPkg, "Many").Block(
			jen.If(jen.Id("m").Op(":=").Id("e").Dot("Many").Call(jen.Lit(h.Name)), jen.Id("m").Op("!=").Nil()).Block(jen.Return(jen.Id("m"))),
			jen.Id("m").Op(":=").Qual(entityPkg, "ManyOf").Call(jen.Lit(h.Target)),
			jen.Id("e").Dot("SetMany").Call(jen.Lit(h.Name), jen.Id("m")),
			jen.Return(jen.Id("m")),
		)
		return
	}
	f.Commentf("%s returns the %s proxy, nil when never set.", method, h.Name)
	f.Func().Params(recv).Id(method).Params().Op("*").Qual(entityPkg, "One").Block(
		jen.Return(jen.Id("e").Dot("One").Call(jen.Lit(h.Name))),
	)
	f.Commentf("Set%s points the %s relation at v. A nil v unsets it.", method, h.Name)
	f.Func().Params(jen.Id("e").Op("*").Id(typ)).Id("Set"+method).Params(jen.Id("v").Qual(entityPkg, "Entity")).Block(
		jen.Id("e").Dot("SetOne").Call(jen.Lit(h.Name), jen.Qual(entityPkg, "OneOf").Call(jen.Lit(h.Target), jen.Id("v"))),
	)
}

func factoriesFile(pkg string, names []string) *jen.File {
	f := newFile(pkg)
	items := make([]jen.Code, 0, len(names))
	for _, name := range names {
		items = append(items, jen.Func().Params().Qual(entityPkg, "Entity").Block(
			jen.Return(jen.Op("&").Id(TypeName(name)).Values()),
		))
	}
	f.Comment("Factories returns the factories of every generated entity.")
	f.Func().Id("Factories").Params().Index().Qual(entityPkg, "Factory").Block(
		jen.Return(jen.Index().Qual(entityPkg, "Factory").Custom(valueList, items...)),
	)
	return f
}

// callList and valueList put every element on its own line.
var (
	callList  = jen.Options{Open: "(", Close: ")", Separator: ",", Multi: true}
	valueList = jen.Options{Open: "{", Close: "}", Separator: ",", Multi: true}
)

func fieldType(t schema.PropertyType) (*jen.Statement, error) {
	switch t {
	case schema.TypeBool:
		return jen.Bool(), nil
	case schema.TypeInt:
		return jen.Int64(), nil
	case schema.TypeFloat:
		return jen.Float64(), nil
	case schema.TypeString, schema.TypeText:
		return jen.String(), nil
	case schema.TypeDatetime:
		return jen.Qual("time", "Time"), nil
	default:
		return nil, fmt.Errorf("unsupported property type %q", t)
	}
}
