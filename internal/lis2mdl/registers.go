// Copyright (c) 2026 Daniel Alarcon Rubio / Relabs Tech
// SPDX-License-Identifier: MIT
// See LICENSE file for full license text

package lis2mdl

// I2C register map for the ST LIS2MDL magnetometer.
const (
	regOffsetXL = 0x45
	regOffsetXH = 0x46
	regOffsetYL = 0x47
	regOffsetYH = 0x48
	regOffsetZL = 0x49
	regOffsetZH = 0x4A
	regWhoAmI   = 0x4F
	regCfgA     = 0x60
	regCfgB     = 0x61
	regCfgC     = 0x62
	regIntCtrl  = 0x63
	regIntSrc   = 0x64
	regIntThsL  = 0x65
	regIntThsH  = 0x66
	regStatus   = 0x67
	regOutXL    = 0x68
	regOutXH    = 0x69
	regOutYL    = 0x6A
	regOutYH    = 0x6B
	regOutZL    = 0x6C
	regOutZH    = 0x6D
	regTempL    = 0x6E
	regTempH    = 0x6F
)

// CFG_REG_A bits.
const (
	cfgATempComp  = 0x80 // temperature compensation
	cfgAReboot    = 0x40 // reboot memory content
	cfgASoftReset = 0x20 // soft reset
	// Bits 3:2 hold the ODR code, bits 1:0 the mode (00 = continuous).
)

// CFG_REG_B bits.
const (
	cfgBLowPass = 0x01 // low pass filter at ODR/4
)

// CFG_REG_C bits.
const (
	cfgCBlockData = 0x10 // block data update
	cfgCSelfTest  = 0x02 // internal self-test stimulus
	cfgCDataReady = 0x01 // data ready on interrupt pin
)

// Setting the high bit of the subaddress enables auto-increment on
// multi-byte reads.
const autoIncrement = 0x80

// Default I2C address.
const DefaultAddr = 0x1E

// ChipID is the expected WHO_AM_I value.
const ChipID = 0x40

// ODR is the output data rate code written into CFG_REG_A bits 3:2.
type ODR byte

const (
	ODR10Hz  ODR = 0x00
	ODR20Hz  ODR = 0x01
	ODR50Hz  ODR = 0x02
	ODR100Hz ODR = 0x03
)
