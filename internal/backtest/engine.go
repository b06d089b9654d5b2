package backtest

import (
	"math"

	"dca-backtest/internal/model"
)

// Simulator runs one accumulation path over the first months observations of a series.
type Simulator func(obs []model.Observation, contribution float64, months int) (*Path, error)

// PriceSimulator adapts SimulateDCA to the Simulator signature.
func PriceSimulator(obs []model.Observation, contribution float64, months int) (*Path, error) {
	return SimulateDCA(model.PriceSeries(obs), contribution, months)
}

// RateSimulator adapts SimulateRate to the Simulator signature.
func RateSimulator(obs []model.Observation, contribution float64, months int) (*Path, error) {
	return SimulateRate(model.RateSeries(obs), contribution, months)
}

// SimulatorFor picks the simulator matching a series kind.
func SimulatorFor(kind model.Kind) Simulator {
	if kind == model.KindRate {
		return RateSimulator
	}
	return PriceSimulator
}

// SimulateDCA buys contribution/price shares every month over the first months prices.
// Portfolio value is marked at that month's price. State only moves forward.
func SimulateDCA(prices model.PriceSeries, contribution float64, months int) (*Path, error) {
	if err := checkInputs(len(prices), contribution, months); err != nil {
		return nil, err
	}

	records := make([]Record, 0, months)
	totalShares := 0.0
	for i, o := range prices[:months] {
		price := o.Value
		if math.IsNaN(price) || math.IsInf(price, 0) || price <= 0 {
			return nil, &model.InvalidInputError{
				Field:  "price",
				Reason: "must be > 0 at " + model.MonthLabel(o.Time),
			}
		}
		bought := contribution / price
		totalShares += bought
		records = append(records, Record{
			Index:  i,
			Period: o.Time,
			Holding: &Holding{
				Price:        price,
				SharesBought: bought,
				TotalShares:  totalShares,
			},
			TotalInvested:  contribution * float64(i+1),
			PortfolioValue: totalShares * price,
		})
	}
	return &Path{Kind: model.KindPrice, Contribution: contribution, Records: records}, nil
}

// SimulateRate deposits contribution every month into an account that compounds by
// the monthly factor. Every earlier deposit is compounded by the current factor and
// the new deposit earns the current factor too, so the balance follows
//
//	balance[i] = (balance[i-1] + contribution) * factor[i]
//
// which equals the sum of individually tracked deposits.
func SimulateRate(factors model.RateSeries, contribution float64, months int) (*Path, error) {
	if err := checkInputs(len(factors), contribution, months); err != nil {
		return nil, err
	}

	records := make([]Record, 0, months)
	balance := 0.0
	for i, o := range factors[:months] {
		balance = balance*o.Value + contribution*o.Value
		records = append(records, Record{
			Index:          i,
			Period:         o.Time,
			TotalInvested:  contribution * float64(i+1),
			PortfolioValue: balance,
		})
	}
	return &Path{Kind: model.KindRate, Contribution: contribution, Records: records}, nil
}

func checkInputs(have int, contribution float64, months int) error {
	if err := model.CheckContribution(contribution); err != nil {
		return err
	}
	if err := model.CheckMonths(months); err != nil {
		return err
	}
	if have < months {
		return &model.InsufficientDataError{Have: have, Need: months}
	}
	return nil
}
