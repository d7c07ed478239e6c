package domain

import (
	"fmt"
	"slices"
)

// BloodType is an ABO/Rh blood group.
type BloodType string

const (
	APos  BloodType = "A+"
	ANeg  BloodType = "A-"
	BPos  BloodType = "B+"
	BNeg  BloodType = "B-"
	ABPos BloodType = "AB+"
	ABNeg BloodType = "AB-"
	OPos  BloodType = "O+"
	ONeg  BloodType = "O-"
)

// BloodTypes lists every blood type in a stable order.
var BloodTypes = []BloodType{APos, ANeg, BPos, BNeg, ABPos, ABNeg, OPos, ONeg}

// Valid reports whether t is one of the eight known blood types.
func (t BloodType) Valid() bool {
	return slices.Contains(BloodTypes, t)
}

// ParseBloodType validates a raw value such as "AB+".
func ParseBloodType(s string) (BloodType, error) {
	t := BloodType(s)
	if !t.Valid() {
		return "", &InvalidBloodTypeError{Value: s}
	}
	return t, nil
}

// receivesFrom maps a recipient type to the donor types it may receive.
var receivesFrom = map[BloodType][]BloodType{
	APos:  {APos, ANeg, OPos, ONeg},
	ANeg:  {ANeg, ONeg},
	BPos:  {BPos, BNeg, OPos, ONeg},
	BNeg:  {BNeg, ONeg},
	ABPos: {APos, ANeg, BPos, BNeg, ABPos, ABNeg, OPos, ONeg},
	ABNeg: {ANeg, BNeg, ABNeg, ONeg},
	OPos:  {OPos, ONeg},
	ONeg:  {ONeg},
}

// donatesTo maps a donor type to the recipient types it may supply.
var donatesTo = map[BloodType][]BloodType{
	APos:  {APos, ABPos},
	ANeg:  {APos, ANeg, ABPos, ABNeg},
	BPos:  {BPos, ABPos},
	BNeg:  {BPos, BNeg, ABPos, ABNeg},
	ABPos: {ABPos},
	ABNeg: {ABPos, ABNeg},
	OPos:  {APos, BPos, ABPos, OPos},
	ONeg:  {APos, ANeg, BPos, BNeg, ABPos, ABNeg, OPos, ONeg},
}

func init() {
	if err := validateCompatibility(receivesFrom, donatesTo); err != nil {
		panic(err)
	}
}

// validateCompatibility checks that both views of the table agree: D may
// supply R exactly when R may receive from D.
func validateCompatibility(receives, donates map[BloodType][]BloodType) error {
	for _, r := range BloodTypes {
		if len(receives[r]) == 0 {
			return fmt.Errorf("compatibility table: recipient %s has no donor types", r)
		}
		for _, d := range BloodTypes {
			canReceive := slices.Contains(receives[r], d)
			canDonate := slices.Contains(donates[d], r)
			if canReceive != canDonate {
				return fmt.Errorf("compatibility table: %s->%s is %v as donor but %v as recipient", d, r, canDonate, canReceive)
			}
		}
	}
	return nil
}

// CompatibleDonorTypes returns the donor types whose blood may be transfused
// into a recipient of type t. Unknown types yield nil.
func CompatibleDonorTypes(t BloodType) []BloodType {
	return slices.Clone(receivesFrom[t])
}

// CompatibleRecipientTypes returns the recipient types a donor of type t may supply.
func CompatibleRecipientTypes(t BloodType) []BloodType {
	return slices.Clone(donatesTo[t])
}

// CanDonate reports whether a donor of type donor may give to recipient.
func CanDonate(donor, recipient BloodType) bool {
	return slices.Contains(receivesFrom[recipient], donor)
}
