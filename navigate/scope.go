package navigate

// Movement is the structural part of a direction: how to get from one entry to
// the candidate next one.
type Movement uint8

const (
	Stay Movement = iota
	Linear
	ToParent
	ToChild
	ToNextPeer
	ToPrevPeer
	ToFirstPeer
	ToLastPeer
	ToNextParent
	ToPrevParent
)

// Filter restricts which entries a linear walk stops at.
type Filter uint8

const (
	OnlyCategories Filter = 1 << iota
	NoCategories
	OnlyExpanded
	OnlySelected
	OnlyUnread
	OnlyHits
	OnlyMain
)

func (f Filter) Has(flag Filter) bool {
	return f&flag == flag
}

type Scope struct {
	Movement Movement
	Backward bool
	Filter   Filter
}

var scopes = [count]Scope{
	Current:    {Movement: Stay},
	Parent:     {Movement: ToParent, Backward: true},
	Child:      {Movement: ToChild},
	NextPeer:   {Movement: ToNextPeer},
	PrevPeer:   {Movement: ToPrevPeer, Backward: true},
	FirstPeer:  {Movement: ToFirstPeer},
	LastPeer:   {Movement: ToLastPeer},
	NextParent: {Movement: ToNextParent},
	PrevParent: {Movement: ToPrevParent, Backward: true},

	NextMain: {Movement: Linear, Filter: OnlyMain},
	PrevMain: {Movement: Linear, Backward: true, Filter: OnlyMain},

	Next:             {Movement: Linear},
	Prev:             {Movement: Linear, Backward: true},
	NextUnread:       {Movement: Linear, Filter: OnlyUnread},
	PrevUnread:       {Movement: Linear, Backward: true, Filter: OnlyUnread},
	NextUnreadMain:   {Movement: Linear, Filter: OnlyUnread | OnlyMain},
	PrevUnreadMain:   {Movement: Linear, Backward: true, Filter: OnlyUnread | OnlyMain},
	NextSelected:     {Movement: Linear, Filter: OnlySelected},
	PrevSelected:     {Movement: Linear, Backward: true, Filter: OnlySelected},
	NextSelectedMain: {Movement: Linear, Filter: OnlySelected | OnlyMain},
	PrevSelectedMain: {Movement: Linear, Backward: true, Filter: OnlySelected | OnlyMain},

	NextExpanded:         {Movement: Linear, Filter: OnlyExpanded},
	PrevExpanded:         {Movement: Linear, Backward: true, Filter: OnlyExpanded},
	NextExpandedUnread:   {Movement: Linear, Filter: OnlyExpanded | OnlyUnread},
	PrevExpandedUnread:   {Movement: Linear, Backward: true, Filter: OnlyExpanded | OnlyUnread},
	NextExpandedSelected: {Movement: Linear, Filter: OnlyExpanded | OnlySelected},
	PrevExpandedSelected: {Movement: Linear, Backward: true, Filter: OnlyExpanded | OnlySelected},
	NextExpandedCategory: {Movement: Linear, Filter: OnlyExpanded | OnlyCategories},
	PrevExpandedCategory: {Movement: Linear, Backward: true, Filter: OnlyExpanded | OnlyCategories},
	NextExpNonCategory:   {Movement: Linear, Filter: OnlyExpanded | NoCategories},
	PrevExpNonCategory:   {Movement: Linear, Backward: true, Filter: OnlyExpanded | NoCategories},

	NextHit:         {Movement: Linear, Filter: OnlyHits},
	PrevHit:         {Movement: Linear, Backward: true, Filter: OnlyHits},
	NextSelectedHit: {Movement: Linear, Filter: OnlyHits | OnlySelected},
	PrevSelectedHit: {Movement: Linear, Backward: true, Filter: OnlyHits | OnlySelected},
	NextUnreadHit:   {Movement: Linear, Filter: OnlyHits | OnlyUnread},
	PrevUnreadHit:   {Movement: Linear, Backward: true, Filter: OnlyHits | OnlyUnread},

	NextCategory:    {Movement: Linear, Filter: OnlyCategories},
	PrevCategory:    {Movement: Linear, Backward: true, Filter: OnlyCategories},
	NextNonCategory: {Movement: Linear, Filter: NoCategories},
	PrevNonCategory: {Movement: Linear, Backward: true, Filter: NoCategories},
}

// ScopeOf decomposes d into a movement and the filters applied while moving.
func ScopeOf(d Direction) Scope {
	if !d.Valid() {
		return Scope{Movement: Stay}
	}
	return scopes[d]
}
