package onnx

import (
	"github.com/sirupsen/logrus"

	"github.com/ironsheep/food-vision-mcp/internal/config"
	"github.com/ironsheep/food-vision-mcp/internal/recognition"
)

// ClassifierLoader returns a recognition.LoaderFunc that builds onnx
// classifiers with the given runtime settings.
func ClassifierLoader(rt config.RuntimeConfig, log logrus.FieldLogger) recognition.LoaderFunc {
	return func(group string, spec config.Classifier) (recognition.Classifier, error) {
		var l logrus.FieldLogger
		if log != nil {
			l = log.WithField("group", group)
		}
		c, err := LoadClassifier(spec, rt, l)
		if err != nil {
			return nil, err
		}
		return c, nil
	}
}
