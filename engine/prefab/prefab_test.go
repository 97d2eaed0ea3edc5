package prefab

import (
	"testing"

	"github.com/bmizerany/assert"
	"github.com/pkg/errors"

	"github.com/gomirror/gomirror/engine/entity"
)

func TestRegisterAndInstantiate(t *testing.T) {
	r := NewRegistry()
	p := r.Register("crate", func() *entity.Entity {
		return entity.NewEntity(0)
	})

	assert.Equal(t, p, r.Get(p.Hash))
	assert.Equal(t, p, r.GetByName("crate"))

	e, err := r.Instantiate(p.Hash)
	assert.Equal(t, nil, err)
	assert.Equal(t, p.Hash, e.PrefabHash)

	_, err = r.Instantiate(0xBAD)
	assert.Equal(t, ErrPrefabNotFound, errors.Cause(err))
}

func TestSceneInstances(t *testing.T) {
	r := NewRegistry()
	hash := HashName("door")

	first := entity.NewEntity(hash)
	second := entity.NewEntity(hash)
	r.PlaceSceneInstance(first)
	r.PlaceSceneInstance(second)

	e, err := r.ResolveSceneInstance(hash)
	assert.Equal(t, nil, err)
	assert.Equal(t, first, e)

	e, err = r.ResolveSceneInstance(hash)
	assert.Equal(t, nil, err)
	assert.Equal(t, second, e)

	_, err = r.ResolveSceneInstance(hash)
	assert.Equal(t, ErrPrefabNotFound, errors.Cause(err))
}
