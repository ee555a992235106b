package server

//go:generate templ generate

import (
	"fmt"

	"catbattle/internal/card"
)

var rarityOrder = []card.Rarity{
	card.RarityCommon,
	card.RarityUncommon,
	card.RarityRare,
	card.RarityEpic,
	card.RarityLegendary,
}

func yesNo(v bool) string {
	if v {
		return "yes"
	}
	return "no"
}

func selectedPack(id *int) string {
	if id == nil {
		return "none"
	}
	return fmt.Sprint(*id)
}
