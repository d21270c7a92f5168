// Copyright (c) 2026 The AnchorNet developers

// Distributed under the GNU Lesser General Public License v3.0 software license, see the accompanying
// file LICENSE or <https://www.gnu.org/licenses/lgpl-3.0.html>

package main

import (
	"bytes"
	"math/big"
	"os"

	"github.com/pkg/errors"
	yaml "gopkg.in/yaml.v3"

	"github.com/anchornet/anchor/anchor"
)

// settingsFile is the YAML override form of the protocol settings. Amounts
// are decimal strings since they exceed what YAML numbers portably carry.
type settingsFile struct {
	Protocol struct {
		MinimumValidatorDeposit            string  `yaml:"minimumValidatorDeposit"`
		MinimumDelegatorDeposit            string  `yaml:"minimumDelegatorDeposit"`
		MinimumTotalStakeForBooting        string  `yaml:"minimumTotalStakeForBooting"`
		MinimumValidatorCount              *uint64 `yaml:"minimumValidatorCount"`
		MaximumValidatorsPerDelegator      *uint64 `yaml:"maximumValidatorsPerDelegator"`
		UnlockPeriodOfValidatorDeposit     *uint64 `yaml:"unlockPeriodOfValidatorDeposit"`
		UnlockPeriodOfDelegatorDeposit     *uint64 `yaml:"unlockPeriodOfDelegatorDeposit"`
		MaximumEraCountOfUnwithdrawnReward *uint64 `yaml:"maximumEraCountOfUnwithdrawnReward"`
		DelegationFeePercent               *uint64 `yaml:"delegationFeePercent"`
	} `yaml:"protocol"`
}

// loadSettings returns the defaults, overridden field by field when a
// settings file is given. Unknown fields in the file are rejected.
func loadSettings(path string) (*anchor.ProtocolSettings, error) {
	settings := anchor.DefaultProtocolSettings()
	if path == "" {
		return settings, nil
	}
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, errors.Wrap(err, "read settings file")
	}
	dec := yaml.NewDecoder(bytes.NewReader(data))
	dec.KnownFields(true)
	var f settingsFile
	if err := dec.Decode(&f); err != nil {
		return nil, errors.Wrap(err, "parse settings file")
	}

	p := f.Protocol
	if err := setAmount(&settings.MinimumValidatorDeposit, p.MinimumValidatorDeposit); err != nil {
		return nil, err
	}
	if err := setAmount(&settings.MinimumDelegatorDeposit, p.MinimumDelegatorDeposit); err != nil {
		return nil, err
	}
	if err := setAmount(&settings.MinimumTotalStakeForBooting, p.MinimumTotalStakeForBooting); err != nil {
		return nil, err
	}
	setCount(&settings.MinimumValidatorCount, p.MinimumValidatorCount)
	setCount(&settings.MaximumValidatorsPerDelegator, p.MaximumValidatorsPerDelegator)
	setCount(&settings.UnlockPeriodOfValidatorDeposit, p.UnlockPeriodOfValidatorDeposit)
	setCount(&settings.UnlockPeriodOfDelegatorDeposit, p.UnlockPeriodOfDelegatorDeposit)
	setCount(&settings.MaximumEraCountOfUnwithdrawnReward, p.MaximumEraCountOfUnwithdrawnReward)
	setCount(&settings.DelegationFeePercent, p.DelegationFeePercent)

	if settings.DelegationFeePercent > 100 {
		return nil, errors.New("delegationFeePercent must not exceed 100")
	}
	return settings, nil
}

func setAmount(dst **big.Int, value string) error {
	if value == "" {
		return nil
	}
	amount, ok := new(big.Int).SetString(value, 10)
	if !ok || amount.Sign() < 0 {
		return errors.Errorf("invalid amount %q in settings file", value)
	}
	*dst = amount
	return nil
}

func setCount(dst *uint64, value *uint64) {
	if value != nil {
		*dst = *value
	}
}
