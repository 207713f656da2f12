package tax

// Guidance explains when tax is usually paid for an earning type.
type Guidance struct {
	Title  string
	Points []string
}

// GuidanceFor returns the payment guidance for e, or false for an unknown type.
func GuidanceFor(e EarningType) (Guidance, bool) {
	switch e {
	case EarningNone:
		return Guidance{
			Title: "Do I need to pay tax?",
			Points: []string{
				"You said you are not earning right now, so you usually won't have income tax to pay.",
				"If any bank / broker is already deducting TDS on interest or investments, that may be enough.",
				"You may still choose to file a tax return to claim refunds or keep records clean.",
			},
		}, true
	case EarningSalary, EarningRetired:
		return Guidance{
			Title: "When is tax usually paid for salaried / pension income?",
			Points: []string{
				"Your employer / pension provider normally deducts TDS from your monthly payout.",
				"At year end you get Form 16 showing total salary and tax deducted.",
				"If the estimate is higher than the TDS in Form 16, you pay the difference as self-assessment tax before filing your return (usually by 31 July for individuals without audit).",
			},
		}, true
	case EarningSelf:
		return Guidance{
			Title: "When is tax usually paid for self-employed / business income?",
			Points: []string{
				"You pay 'advance tax' in 4 instalments during the year: 15 June, 15 Sept, 15 Dec and 15 March.",
				"By 15 March, at least 100% of your estimated tax for the year should be paid to avoid interest.",
				"After year end you file your tax return, adjust for the exact income, and pay / claim any difference.",
			},
		}, true
	}
	return Guidance{}, false
}
