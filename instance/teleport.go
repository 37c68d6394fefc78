package instance

// Teleport schedules a safe-spawn-searched teleport of player into inst at
// pos, across two next-tick hops: first loading the destination chunk, then
// — on the subsequent tick — setting the player's instance and position
// (spec.md §4.G).
func Teleport(inst Instance, player Player, pos Position) {
	teleport(inst, player, pos, true)
}

// TeleportExact is Teleport without the safe-spawn search: pos is used
// verbatim.
func TeleportExact(inst Instance, player Player, pos Position) {
	teleport(inst, player, pos, false)
}

func teleport(inst Instance, player Player, pos Position, safe bool) {
	inst.NextTick(func(tx Tx) {
		cx, cz := int(pos.X)>>4, int(pos.Z)>>4
		inst.LoadChunk(ChunkXZ{X: cx, Z: cz})

		target := pos
		if safe {
			target = safeSpawnSearch(tx, inst.MinY(), pos)
		}
		inst.NextTick(func(Tx) {
			player.SetInstance(inst, target)
		})
	})
}

// safeSpawnSearch scans downward from target's Y, one block above
// inst's min-Y, for the pattern floor-solid ∧ body-air ∧ head-air. It
// returns the first matching position, or target unchanged if none is
// found (spec.md §4.G).
func safeSpawnSearch(tx Tx, minY int, target Position) Position {
	x, z := int(target.X), int(target.Z)
	for y := int(target.Y); y > minY; y-- {
		floor := BlockPos{X: x, Y: y - 1, Z: z}
		body := BlockPos{X: x, Y: y, Z: z}
		head := BlockPos{X: x, Y: y + 1, Z: z}
		if tx.FloorSolid(floor) && tx.AirAt(body) && tx.AirAt(head) {
			return Position{X: target.X, Y: float64(y), Z: target.Z}
		}
	}
	return target
}
