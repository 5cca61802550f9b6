package testmodel

import (
	"time"

	"github.com/airagroup/dobee/entity"
)

// Factories returns the factories of every concrete entity of the model.
func Factories() []entity.Factory {
	return []entity.Factory{
		func() entity.Entity { return &User{} },
		func() entity.Entity { return &Customer{} },
		func() entity.Entity { return &Profile{} },
		func() entity.Entity { return &Order{} },
		func() entity.Entity { return &Item{} },
		func() entity.Entity { return &Tag{} },
		func() entity.Entity { return &Category{} },
		func() entity.Entity { return &Dog{} },
		func() entity.Entity { return &Toy{} },
	}
}

type User struct {
	entity.Base
	Name string
}

var userAccessors = entity.NewAccessors(
	entity.Field("name", func(u *User) string { return u.Name }, func(u *User, v string) { u.Name = v }),
)

func (*User) EntityName() string           { return "user" }
func (*User) Accessors() *entity.Accessors { return userAccessors }

type Customer struct {
	entity.Base
	Name string
}

var customerAccessors = entity.NewAccessors(
	entity.Field("name", func(c *Customer) string { return c.Name }, func(c *Customer, v string) { c.Name = v }),
)

func (*Customer) EntityName() string           { return "customer" }
func (*Customer) Accessors() *entity.Accessors { return customerAccessors }

// Orders returns the orders placed by the customer.
func (c *Customer) Orders() *entity.Many { return c.Many("orders") }

type Profile struct {
	entity.Base
	Bio string
}

var profileAccessors = entity.NewAccessors(
	entity.Field("bio", func(p *Profile) string { return p.Bio }, func(p *Profile, v string) { p.Bio = v }),
)

func (*Profile) EntityName() string           { return "profile" }
func (*Profile) Accessors() *entity.Accessors { return profileAccessors }

// Order is loggable, soft deletable and stamped with the acting user.
type Order struct {
	entity.Base
	Total     int64
	Note      string
	PlacedAt  time.Time
	UpdatedBy int64
	Deleted   bool
}

var orderAccessors = entity.NewAccessors(
	entity.Field("total", func(o *Order) int64 { return o.Total }, func(o *Order, v int64) { o.Total = v }),
	entity.Field("note", func(o *Order) string { return o.Note }, func(o *Order, v string) { o.Note = v }),
	entity.Field("placedAt", func(o *Order) time.Time { return o.PlacedAt }, func(o *Order, v time.Time) { o.PlacedAt = v }),
	entity.Field("updatedBy", func(o *Order) int64 { return o.UpdatedBy }, func(o *Order, v int64) { o.UpdatedBy = v }),
)

func (*Order) EntityName() string           { return "order" }
func (*Order) Accessors() *entity.Accessors { return orderAccessors }
func (o *Order) SoftDelete()                { o.Deleted = true }
func (o *Order) IsDeleted() bool            { return o.Deleted }

// Items returns the order lines.
func (o *Order) Items() *entity.Many {
	if m := o.Many("items"); m != nil {
		return m
	}
	m := entity.ManyOf("item")
	o.SetMany("items", m)
	return m
}

// Tags returns the tags linked to the order.
func (o *Order) Tags() *entity.Many {
	if m := o.Many("tags"); m != nil {
		return m
	}
	m := entity.ManyOf("tag")
	o.SetMany("tags", m)
	return m
}

// SetCustomer points the order at c.
func (o *Order) SetCustomer(c *Customer) { o.SetOne("customer", entity.OneOf("customer", c)) }

type Item struct {
	entity.Base
	Title  string
	Price  float64
	Active bool
}

var itemAccessors = entity.NewAccessors(
	entity.Field("title", func(i *Item) string { return i.Title }, func(i *Item, v string) { i.Title = v }),
	entity.Field("price", func(i *Item) float64 { return i.Price }, func(i *Item, v float64) { i.Price = v }),
	entity.Field("active", func(i *Item) bool { return i.Active }, func(i *Item, v bool) { i.Active = v }),
)

func (*Item) EntityName() string           { return "item" }
func (*Item) Accessors() *entity.Accessors { return itemAccessors }

// SetOrder attaches the item to o.
func (i *Item) SetOrder(o *Order) { i.SetOne("order", entity.OneOf("order", o)) }

type Tag struct {
	entity.Base
	Label string
}

var tagAccessors = entity.NewAccessors(
	entity.Field("label", func(t *Tag) string { return t.Label }, func(t *Tag, v string) { t.Label = v }),
)

func (*Tag) EntityName() string           { return "tag" }
func (*Tag) Accessors() *entity.Accessors { return tagAccessors }

type Category struct {
	entity.Base
	Name string
}

var categoryAccessors = entity.NewAccessors(
	entity.Field("name", func(c *Category) string { return c.Name }, func(c *Category, v string) { c.Name = v }),
)

func (*Category) EntityName() string           { return "category" }
func (*Category) Accessors() *entity.Accessors { return categoryAccessors }

// Dog is the concrete subtype of the abstract animal.
type Dog struct {
	entity.Base
	Name  string
	Barks bool
}

var dogAccessors = entity.NewAccessors(
	entity.Field("name", func(d *Dog) string { return d.Name }, func(d *Dog, v string) { d.Name = v }),
	entity.Field("barks", func(d *Dog) bool { return d.Barks }, func(d *Dog, v bool) { d.Barks = v }),
)

func (*Dog) EntityName() string           { return "dog" }
func (*Dog) Accessors() *entity.Accessors { return dogAccessors }

type Toy struct {
	entity.Base
	Label string
}

var toyAccessors = entity.NewAccessors(
	entity.Field("label", func(t *Toy) string { return t.Label }, func(t *Toy, v string) { t.Label = v }),
)

func (*Toy) EntityName() string           { return "toy" }
func (*Toy) Accessors() *entity.Accessors { return toyAccessors }
