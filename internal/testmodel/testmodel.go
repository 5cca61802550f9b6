// Package testmodel provides the entity model shared by package tests.
package testmodel

import (
	"strings"

	"github.com/airagroup/dobee/schema"
)

// YAML is the shared model document.
const YAML = `
namespace: App\Entity
entities:
  user:
    properties:
      id: int
      name: string
  customer:
    properties:
      id: int
      name: string
    relations:
      order: ONE_TO_MANY
      profile: ONE_TO_ONE
  profile:
    properties:
      id: int
      bio: text
    relations:
      customer: <<ONE_TO_ONE
  order:
    loggable: true
    softDeletable: true
    properties:
      id: int
      total: int
      note: text
      placedAt: datetime
      updatedBy: int
    relations:
      customer: MANY_TO_ONE
      item: ONE_TO_MANY
      tag: <<MANY_TO_MANY
    blameable:
      property: updatedBy
      targetEntity: user
      nullValue: 0
  item:
    properties:
      id: int
      title: string
      price: float
      active: bool
    relations:
      order: MANY_TO_ONE
    order:
      property: title
      direction: asc
  tag:
    properties:
      id: int
      label: string
    relations:
      order: MANY_TO_MANY
      tag: SELF::MANY_TO_MANY
  category:
    properties:
      id: int
      name: string
    relations:
      category: SELF::MANY_TO_ONE
  animal:
    abstract: true
    properties:
      id: int
      name: string
    relations:
      toy: ONE_TO_MANY
  dog:
    extends: animal
    loggable: true
    properties:
      barks: bool
  toy:
    properties:
      id: int
      label: string
    relations:
      animal: MANY_TO_ONE
`

// Model returns a freshly loaded copy of the shared model.
func Model() *schema.Model {
	m, err := schema.Load(strings.NewReader(YAML))
	if err != nil {
		panic(err)
	}
	return m
}
