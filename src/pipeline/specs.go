package pipeline

import "github.com/iafilius/FixtureCharts/src/types"

// DefaultSpecs is the chart set produced for the employees profile.
func DefaultSpecs() []types.ChartSpec {
	return []types.ChartSpec{
		{
			Kind: types.KindBoxplot, Title: "Salary distribution by department",
			XLabel: "Department", YLabel: "Salary", Filename: "chart_salary_by_department.png",
			Selector: types.DataSelector{Group: "department", Y: "salary"},
		},
		{
			Kind: types.KindScatter, Title: "Performance score vs age",
			XLabel: "Age", YLabel: "Performance score", Filename: "chart_performance_vs_age.png",
			Selector: types.DataSelector{X: "age", Y: "performance_score"},
		},
		{
			Kind: types.KindBar, Title: "Average completed projects by department",
			XLabel: "Department", YLabel: "Projects (mean)", Filename: "chart_projects_by_department.png",
			Selector: types.DataSelector{Group: "department", Reduce: types.ReduceMean, Y: "projects_completed"},
		},
		{
			Kind: types.KindLine, Title: "Registrations per month",
			XLabel: "Month", YLabel: "Registrations", Filename: "chart_registrations_timeline.png",
			Selector: types.DataSelector{X: "registration_date", Period: "2006-01"},
		},
		{
			Kind: types.KindHistogram, Title: "Salary histogram",
			XLabel: "Salary", YLabel: "Employees", Filename: "chart_salary_histogram.png",
			Selector: types.DataSelector{X: "salary", Bins: 10},
		},
		{
			Kind: types.KindBar, Title: "Top 10 cities",
			XLabel: "City", YLabel: "Employees", Filename: "chart_top_cities.png",
			Selector: types.DataSelector{Group: "city", Reduce: types.ReduceTopK, TopK: 10},
		},
	}
}

// FixtureSpecs is the chart set for the store-backed fixtures profile (f1..f5 columns).
func FixtureSpecs() []types.ChartSpec {
	return []types.ChartSpec{
		{
			Kind: types.KindScatter, Title: "Scatter Plot", XLabel: "F1", YLabel: "F2",
			Filename: "scatter.png", Selector: types.DataSelector{X: "f1", Y: "f2"},
		},
		{
			Kind: types.KindBar, Title: "Bar Chart", XLabel: "F4 Values", YLabel: "Count",
			Filename: "bar.png", Selector: types.DataSelector{Group: "f4", Reduce: types.ReduceTopK, TopK: 10},
		},
		{
			Kind: types.KindHistogram, Title: "Histogram", XLabel: "F1", YLabel: "Frequency",
			Filename: "hist.png", Selector: types.DataSelector{X: "f1", Bins: 10},
		},
	}
}

// SalesSpecs is the chart set for the sales profile.
func SalesSpecs() []types.ChartSpec {
	return []types.ChartSpec{
		{
			Kind: types.KindBar, Title: "Units sold by region", XLabel: "Region", YLabel: "Units",
			Filename: "sales_units_by_region.png", Selector: types.DataSelector{Group: "region", Reduce: types.ReduceSum, Y: "qty"},
		},
		{
			Kind: types.KindBoxplot, Title: "Price by region", XLabel: "Region", YLabel: "Price",
			Filename: "sales_price_by_region.png", Selector: types.DataSelector{Group: "region", Y: "price"},
		},
		{
			Kind: types.KindLine, Title: "Sales per month", XLabel: "Month", YLabel: "Sales",
			Filename: "sales_timeline.png", Selector: types.DataSelector{X: "sold_at", Period: "2006-01"},
		},
	}
}

// SpecsFor returns the built-in chart set of a fixture profile.
func SpecsFor(profile string) []types.ChartSpec {
	switch profile {
	case "fixtures":
		return FixtureSpecs()
	case "sales":
		return SalesSpecs()
	default:
		return DefaultSpecs()
	}
}

// Filenames lists the output names of specs in order.
func Filenames(specs []types.ChartSpec) []string {
	out := make([]string, 0, len(specs))
	for _, s := range specs {
		out = append(out, s.Filename)
	}
	return out
}
