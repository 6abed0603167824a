// Package crdassets embeds the StellarNode CustomResourceDefinition manifest
// so installers and tests can load it without touching the filesystem.
//
// Grounded on the teacher's cmd/install/assets package: an embed.FS of
// controller-gen output decoded through apiextensionsv1.CustomResourceDefinition,
// including its "strip the leading YAML document separator" repair step.
package crdassets

import (
	"bytes"
	"fmt"
	"io/fs"

	"embed"

	apiextensionsv1 "k8s.io/apiextensions-apiserver/pkg/apis/apiextensions/v1"
	"k8s.io/apimachinery/pkg/util/yaml"
)

//go:embed manifests/*.yaml
var manifests embed.FS

// StellarNodeCRDFile is the manifest path within manifests/.
const StellarNodeCRDFile = "manifests/stellar.stellar-k8s.io_stellarnodes.yaml"

// StellarNodeCRD decodes and returns the embedded StellarNode CRD.
func StellarNodeCRD() (*apiextensionsv1.CustomResourceDefinition, error) {
	return decode(StellarNodeCRDFile)
}

func decode(path string) (*apiextensionsv1.CustomResourceDefinition, error) {
	raw, err := fs.ReadFile(manifests, path)
	if err != nil {
		return nil, fmt.Errorf("reading %s: %w", path, err)
	}
	repaired := bytes.TrimPrefix(raw, []byte("---\n"))

	var crd apiextensionsv1.CustomResourceDefinition
	if err := yaml.NewYAMLOrJSONDecoder(bytes.NewReader(repaired), 4096).Decode(&crd); err != nil {
		return nil, fmt.Errorf("decoding %s: %w", path, err)
	}
	return &crd, nil
}
