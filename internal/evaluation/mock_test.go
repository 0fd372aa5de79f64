package evaluation

import (
	"github.com/stretchr/testify/mock"
)

// mockClassifier is a testify mock of ports.Classifier
type mockClassifier struct {
	mock.Mock
}

func (m *mockClassifier) Name() string { return "mock" }

func (m *mockClassifier) Train(features [][]float64, labels []int) error {
	return m.Called(features, labels).Error(0)
}

func (m *mockClassifier) PredictProbability(sample []float64) (float64, error) {
	args := m.Called(sample)
	return args.Get(0).(float64), args.Error(1)
}

func (m *mockClassifier) PredictProbabilities(samples [][]float64) ([]float64, error) {
	args := m.Called(samples)
	return args.Get(0).([]float64), args.Error(1)
}

func (m *mockClassifier) Predict(sample []float64) (int, error) {
	args := m.Called(sample)
	return args.Int(0), args.Error(1)
}

func (m *mockClassifier) PredictBatch(samples [][]float64) ([]int, error) {
	args := m.Called(samples)
	return args.Get(0).([]int), args.Error(1)
}

func (m *mockClassifier) Accuracy(features [][]float64, labels []int) (float64, error) {
	args := m.Called(features, labels)
	return args.Get(0).(float64), args.Error(1)
}

func (m *mockClassifier) DecisionThreshold() float64 { return 0.5 }

func (m *mockClassifier) SetDecisionThreshold(float64) error { return nil }

func (m *mockClassifier) IsTrained() bool { return false }
