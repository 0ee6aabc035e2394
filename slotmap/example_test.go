package slotmap_test

import (
	"errors"
	"fmt"

	"github.com/vkngwrapper/slotpool/memutils"
	"github.com/vkngwrapper/slotpool/slotmap"
)

type entity struct {
	name string
	hp   int
}

func ExamplePool() {
	pool, err := slotmap.New[entity](nil, slotmap.CreateOptions[entity]{Name: "entities"})
	if err != nil {
		panic(err)
	}
	defer pool.Close()

	goblin, _ := pool.Insert(entity{name: "goblin", hp: 7})

	e, _ := pool.Get(goblin)
	e.hp -= 3
	fmt.Println(e.name, e.hp)

	_ = pool.Destroy(goblin)
	orc, _ := pool.Insert(entity{name: "orc", hp: 15})

	_, err = pool.Get(goblin)
	fmt.Println(errors.Is(err, memutils.ErrNotFound))
	fmt.Println(pool.Layout().Index(goblin) == pool.Layout().Index(orc), goblin == orc)

	// Output:
	// goblin 4
	// true
	// true false
}
