package finance

// RevenueTotal adds product and service revenue.
func RevenueTotal(product, service float64) float64 {
	return product + service
}

// ProductProfit is product revenue minus product cost.
func ProductProfit(revenue, cost float64) float64 {
	return revenue - cost
}

// ServiceProfit equals service revenue; services carry no unit cost.
func ServiceProfit(revenue float64) float64 {
	return revenue
}

// ProfitTotal adds product and service profit.
func ProfitTotal(product, service float64) float64 {
	return product + service
}

// Share returns part as a percentage of total, or 0 when total is zero.
func Share(part, total float64) float64 {
	if total == 0 {
		return 0
	}
	return part / total * 100
}

// Margin returns profit as a percentage of revenue.
func Margin(profit, revenue float64) float64 {
	return Share(profit, revenue)
}

// Compute derives a full summary from raw amounts.
func Compute(productRevenue, productCost, serviceRevenue float64) (Revenue, Profit) {
	rev := Revenue{
		Product: productRevenue,
		Service: serviceRevenue,
		Total:   RevenueTotal(productRevenue, serviceRevenue),
	}
	rev.ProductShare = Share(rev.Product, rev.Total)
	rev.ServiceShare = Share(rev.Service, rev.Total)

	prof := Profit{
		Product: ProductProfit(productRevenue, productCost),
		Service: ServiceProfit(serviceRevenue),
	}
	prof.Total = ProfitTotal(prof.Product, prof.Service)
	prof.ProductShare = Share(prof.Product, prof.Total)
	prof.ServiceShare = Share(prof.Service, prof.Total)
	prof.Margin = Margin(prof.Total, rev.Total)
	return rev, prof
}

// Reconcile fills totals and percentages missing from a stored snapshot.
// Values present in the snapshot are kept as stored.
func (s *Summary) Reconcile() {
	r := &s.Revenue
	if r.Total == 0 {
		r.Total = RevenueTotal(r.Product, r.Service)
	}
	if r.ProductShare == 0 {
		r.ProductShare = Share(r.Product, r.Total)
	}
	if r.ServiceShare == 0 {
		r.ServiceShare = Share(r.Service, r.Total)
	}
	p := &s.Profit
	if p.Total == 0 {
		p.Total = ProfitTotal(p.Product, p.Service)
	}
	if p.ProductShare == 0 {
		p.ProductShare = Share(p.Product, p.Total)
	}
	if p.ServiceShare == 0 {
		p.ServiceShare = Share(p.Service, p.Total)
	}
	if p.Margin == 0 {
		p.Margin = Margin(p.Total, r.Total)
	}
}
