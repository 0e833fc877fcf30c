package export

import (
	"os"

	"github.com/rotisserie/eris"
	"gopkg.in/yaml.v3"
)

// WriteReportYAML serializes a report to a YAML file.
func WriteReportYAML(path string, report any) error {
	data, err := yaml.Marshal(report)
	if err != nil {
		return eris.Wrap(err, "export: marshal report")
	}
	if err := os.WriteFile(path, data, 0o644); err != nil {
		return eris.Wrapf(err, "export: write %s", path)
	}
	return nil
}
