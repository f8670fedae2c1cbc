package dto

// AddSlotRequest publishes a new weekly slot for an owner.
type AddSlotRequest struct {
	DayOfWeek *int   `json:"dayOfWeek" validate:"required,min=0,max=6"`
	StartTime string `json:"startTime" validate:"required,len=5"`
	EndTime   string `json:"endTime" validate:"required,len=5"`
	Category  string `json:"category" validate:"max=64"`
}

// UpdateSlotRequest changes a slot's interval. Category is kept when omitted.
type UpdateSlotRequest struct {
	StartTime string  `json:"startTime" validate:"required,len=5"`
	EndTime   string  `json:"endTime" validate:"required,len=5"`
	Category  *string `json:"category" validate:"omitempty,max=64"`
}

// CopyDayRequest replaces every slot on ToDay with copies of FromDay.
type CopyDayRequest struct {
	FromDay *int `json:"fromDay" validate:"required,min=0,max=6"`
	ToDay   *int `json:"toDay" validate:"required,min=0,max=6"`
}

// CopyDayResponse reports the outcome of a day copy.
type CopyDayResponse struct {
	FromDay  int `json:"fromDay"`
	ToDay    int `json:"toDay"`
	Replaced int `json:"replaced"`
	Copied   int `json:"copied"`
}
