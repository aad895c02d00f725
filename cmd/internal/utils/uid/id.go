package uid

import (
	"sync"

	"github.com/bwmarrin/snowflake"
	"github.com/labstack/gommon/log"
)

var (
	node *snowflake.Node
	once sync.Once
)

// Init configures the snowflake node for this process. Only the first call has any effect.
func Init(machineID int64) {
	once.Do(func() {
		var err error
		node, err = snowflake.NewNode(machineID)
		if err != nil {
			log.Fatalf("failed to initialize snowflake node: %v", err)
		}
	})
}

// Generate returns a new unique ID. Without a prior Init, node 0 is used.
func Generate() int64 {
	Init(0)
	return node.Generate().Int64()
}
