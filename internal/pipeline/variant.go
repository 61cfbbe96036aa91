package pipeline

import (
	"fmt"
	"sort"

	"github.com/SyedDaiam9101/enhance-service/internal/tensor"
)

// Variant selects the model and its input contract.
type Variant struct {
	Name       string
	InputSize  int
	ModelAsset string
	Norm       tensor.Normalization
}

// Presets are the built-in variants.
var Presets = map[string]Variant{
	"resnet": {
		Name:       "resnet",
		InputSize:  224,
		ModelAsset: "model.onnx",
		Norm:       tensor.ImageNet,
	},
	"deblur": {
		Name:       "deblur",
		InputSize:  256,
		ModelAsset: "deblur_large.onnx",
		Norm:       tensor.Identity,
	},
	"micronet": {
		Name:       "micronet",
		InputSize:  512,
		ModelAsset: "fpn_micronet.onnx",
		Norm: tensor.Normalization{
			Mean: [3]float32{0.5, 0.5, 0.5},
			Std:  [3]float32{0.5, 0.5, 0.5},
		},
	},
}

// Preset looks up a built-in variant by name.
func Preset(name string) (Variant, error) {
	v, ok := Presets[name]
	if !ok {
		names := make([]string, 0, len(Presets))
		for n := range Presets {
			names = append(names, n)
		}
		sort.Strings(names)
		return Variant{}, fmt.Errorf("unknown variant %q (available: %v)", name, names)
	}
	return v, nil
}

// Validate checks the variant can drive the codec.
func (v Variant) Validate() error {
	if v.InputSize <= 0 {
		return fmt.Errorf("variant %s: input size must be positive, got %d", v.Name, v.InputSize)
	}
	if v.ModelAsset == "" {
		return fmt.Errorf("variant %s: model asset is required", v.Name)
	}
	if err := v.Norm.Validate(); err != nil {
		return fmt.Errorf("variant %s: %w", v.Name, err)
	}
	return nil
}

// Fingerprint identifies everything about v that changes the output: two
// variants with the same fingerprint process images identically.
func (v Variant) Fingerprint() string {
	return fmt.Sprintf("%s/%d/%s/%v/%v", v.Name, v.InputSize, v.ModelAsset, v.Norm.Mean, v.Norm.Std)
}
