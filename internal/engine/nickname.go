package engine

import (
	"fmt"
	"math/rand"
)

// randomNickname produces the shared label for one pairing, e.g.
// "Stranger4821". Collisions across simultaneous pairs are cosmetically
// harmless; the label only has to tell concurrent conversations apart.
func randomNickname() string {
	return fmt.Sprintf("Stranger%d", 1000+rand.Intn(9000))
}
