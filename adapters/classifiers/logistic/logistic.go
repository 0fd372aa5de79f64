// Package logistic implements L2-regularised logistic regression fitted by
// iteratively reweighted least squares.
package logistic

import (
	"fmt"
	"math"
	"sync"

	"claimsift/adapters/classifiers"
	"claimsift/domain/evaluation"
	"claimsift/internal/errors"
	"claimsift/ports"

	"gonum.org/v1/gonum/floats"
	"gonum.org/v1/gonum/mat"
)

// ModelName identifies the classifier in logs and reports
const ModelName = "Logistic Regression"

// Defaults for the hyperparameters
const (
	DefaultTolerance      = 1e-6
	DefaultMaxIterations  = 100
	DefaultRegularization = 1e-3
)

// minWeight keeps the IRLS weights away from zero for saturated samples
const minWeight = 1e-10

// Classifier is a binary logistic regression with intercept
type Classifier struct {
	*classifiers.Base

	tolerance      float64
	maxIterations  int
	regularization float64

	mu         sync.RWMutex
	intercept  float64
	weights    []float64
	iterations int
	converged  bool
}

// Option configures a Classifier
type Option func(*Classifier)

// WithTolerance stops training once no parameter moves by more than tol
func WithTolerance(tol float64) Option {
	return func(c *Classifier) { c.tolerance = tol }
}

// WithMaxIterations caps the number of Newton steps
func WithMaxIterations(n int) Option {
	return func(c *Classifier) { c.maxIterations = n }
}

// WithRegularization sets the L2 penalty on the weights (not the intercept)
func WithRegularization(lambda float64) Option {
	return func(c *Classifier) { c.regularization = lambda }
}

// New creates an untrained classifier
func New(opts ...Option) *Classifier {
	c := &Classifier{
		Base:           classifiers.NewBase(ModelName),
		tolerance:      DefaultTolerance,
		maxIterations:  DefaultMaxIterations,
		regularization: DefaultRegularization,
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

// Factory builds classifiers from "tolerance" and "max_iterations" parameters
func Factory(cfg evaluation.Configuration) (ports.Classifier, error) {
	tol := cfg.Float("tolerance", DefaultTolerance)
	iters := cfg.Int("max_iterations", DefaultMaxIterations)
	if tol <= 0 || iters < 1 {
		return nil, errors.InvalidInput(fmt.Sprintf("invalid logistic regression configuration: %s", cfg))
	}
	return New(WithTolerance(tol), WithMaxIterations(iters)), nil
}

// Tolerance returns the convergence tolerance
func (c *Classifier) Tolerance() float64 { return c.tolerance }

// MaxIterations returns the iteration cap
func (c *Classifier) MaxIterations() int { return c.maxIterations }

// Train fits intercept and weights with Newton steps on the penalised
// log-likelihood, solving each step with a Cholesky factorisation.
func (c *Classifier) Train(features [][]float64, labels []int) error {
	c.Reset()
	if err := classifiers.ValidateTraining(features, labels); err != nil {
		return errors.TrainingError(ModelName, err)
	}

	n, p := len(features), len(features[0])
	d := p + 1
	x := mat.NewDense(n, d, nil)
	for i, row := range features {
		x.Set(i, 0, 1)
		for j, v := range row {
			x.Set(i, j+1, v)
		}
	}

	beta := make([]float64, d)
	eta := mat.NewVecDense(n, nil)
	resid := mat.NewVecDense(n, nil)
	xw := mat.NewDense(n, d, nil)
	var hess mat.Dense
	grad := mat.NewVecDense(d, nil)
	sym := mat.NewSymDense(d, nil)
	var chol mat.Cholesky
	var step mat.VecDense

	converged := false
	iter := 0
	for iter < c.maxIterations {
		iter++
		eta.MulVec(x, mat.NewVecDense(d, beta))

		for i := 0; i < n; i++ {
			mu := sigmoid(eta.AtVec(i))
			w := math.Max(mu*(1-mu), minWeight)
			resid.SetVec(i, float64(labels[i])-mu)
			for j := 0; j < d; j++ {
				xw.Set(i, j, x.At(i, j)*w)
			}
		}

		grad.MulVec(x.T(), resid)
		hess.Mul(x.T(), xw)
		for j := 0; j < d; j++ {
			for k := j; k < d; k++ {
				sym.SetSym(j, k, hess.At(j, k))
			}
		}
		for j := 1; j < d; j++ {
			grad.SetVec(j, grad.AtVec(j)-c.regularization*beta[j])
			sym.SetSym(j, j, sym.At(j, j)+c.regularization)
		}
		sym.SetSym(0, 0, sym.At(0, 0)+minWeight)

		if ok := chol.Factorize(sym); !ok {
			return errors.TrainingError(ModelName, fmt.Errorf("hessian is not positive definite at iteration %d", iter))
		}
		if err := chol.SolveVecTo(&step, grad); err != nil {
			return errors.TrainingError(ModelName, err)
		}

		maxChange := 0.0
		for j := range beta {
			delta := step.AtVec(j)
			beta[j] += delta
			maxChange = math.Max(maxChange, math.Abs(delta))
		}
		if !allFinite(beta) {
			return errors.TrainingError(ModelName, fmt.Errorf("parameters diverged at iteration %d", iter))
		}
		if maxChange < c.tolerance {
			converged = true
			break
		}
	}

	c.mu.Lock()
	c.intercept = beta[0]
	c.weights = beta[1:]
	c.iterations = iter
	c.converged = converged
	c.mu.Unlock()

	c.MarkTrained(p)
	return nil
}

// PredictProbability returns P(fraud | sample)
func (c *Classifier) PredictProbability(sample []float64) (float64, error) {
	if err := c.CheckSample(sample); err != nil {
		return 0, err
	}
	c.mu.RLock()
	defer c.mu.RUnlock()
	return sigmoid(c.intercept + floats.Dot(c.weights, sample)), nil
}

func (c *Classifier) PredictProbabilities(samples [][]float64) ([]float64, error) {
	return classifiers.Probabilities(c.PredictProbability, samples)
}

func (c *Classifier) Predict(sample []float64) (int, error) {
	p, err := c.PredictProbability(sample)
	if err != nil {
		return 0, err
	}
	return c.Decide(p), nil
}

func (c *Classifier) PredictBatch(samples [][]float64) ([]int, error) {
	return c.DecideAll(c.PredictProbability, samples)
}

func (c *Classifier) Accuracy(features [][]float64, labels []int) (float64, error) {
	return c.AccuracyOf(c.PredictProbability, features, labels)
}

// Coefficients returns the intercept and a copy of the weights
func (c *Classifier) Coefficients() (float64, []float64) {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return c.intercept, append([]float64(nil), c.weights...)
}

// Converged reports whether the last fit met the tolerance, and after how many iterations
func (c *Classifier) Converged() (bool, int) {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return c.converged, c.iterations
}

// Describe summarises the configuration and fit
func (c *Classifier) Describe() string {
	ok, iters := c.Converged()
	return fmt.Sprintf("%s: tolerance=%g, max_iterations=%d, converged=%t after %d iterations",
		c.Base.Describe(), c.tolerance, c.maxIterations, ok, iters)
}

func sigmoid(z float64) float64 {
	if z >= 0 {
		return 1 / (1 + math.Exp(-z))
	}
	e := math.Exp(z)
	return e / (1 + e)
}

func allFinite(v []float64) bool {
	for _, x := range v {
		if math.IsNaN(x) || math.IsInf(x, 0) {
			return false
		}
	}
	return true
}
