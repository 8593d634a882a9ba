package model

// PlayerStatus mirrors squire_lib's Player status: a registered player is
// active until they drop (self or admin), which is terminal.
type PlayerStatus int

const (
	Registered PlayerStatus = iota
	Dropped
)

// Deck is a named, ordered list of card entries. The core does not
// validate deck contents (no card database is in scope); it only tracks
// registration and ordering.
type Deck struct {
	Name  string
	Cards []string
}

// Player is one tournament participant.
type Player struct {
	ID          PlayerID
	Name        string
	GameName    *string
	GamerTag    *string
	DeckOrder   []string
	Decks       map[string]Deck
	Status      PlayerStatus
	CheckedIn   bool
}

func NewPlayer(id PlayerID, name string) *Player {
	return &Player{
		ID:        id,
		Name:      name,
		DeckOrder: nil,
		Decks:     make(map[string]Deck),
		Status:    Registered,
	}
}

func (p *Player) CanPlay() bool {
	return p.Status == Registered
}

// AddDeck inserts or replaces a deck, appending its name to DeckOrder only
// the first time it's seen so order of first appearance is preserved.
func (p *Player) AddDeck(name string, cards []string) {
	if _, exists := p.Decks[name]; !exists {
		p.DeckOrder = append(p.DeckOrder, name)
	}
	p.Decks[name] = Deck{Name: name, Cards: cards}
}

func (p *Player) RemoveDeck(name string) bool {
	if _, exists := p.Decks[name]; !exists {
		return false
	}
	delete(p.Decks, name)
	for i, n := range p.DeckOrder {
		if n == name {
			p.DeckOrder = append(p.DeckOrder[:i], p.DeckOrder[i+1:]...)
			break
		}
	}
	return true
}
