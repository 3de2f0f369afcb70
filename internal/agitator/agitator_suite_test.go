package agitator_test

import (
	"testing"

	. "github.com/onsi/ginkgo/v2"
	. "github.com/onsi/gomega"
)

func TestAgitator(t *testing.T) {
	RegisterFailHandler(Fail)
	RunSpecs(t, "Agitator Suite")
}
