package inventory

import (
	"errors"
	"testing"

	"bricklink/inventory/internal/domain"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const baseURL = "https://www.bricklink.com"

const setFixture = `# Inventory of Set 8480-1

![Set No: 8480-1  Name: Space Shuttle](//img.bricklink.com/S/8480-1.jpg)

[Catalog](https://www.bricklink.com/catalog.asp) : [Sets](https://www.bricklink.com/catalogList.asp?catType=S) : [Technic](https://www.bricklink.com/catalogList.asp?catType=S&catString=5)

| **Image** | **Qty** | **Item No** | **Description** |
|---|---|---|---|
|**Parts:**| | | |
|![Part No: 3001  Name: Brick 2 x 4](//img.bricklink.com/PN/5/3001.png)|4|[3001](https://www.bricklink.com/v2/catalog/catalogitem.page?P=3001&idColor=5)|Red Brick 2 x 4|
|**Counterpart Items:**| | | |
|![Part No: 3002  Name: Brick 2 x 3](//img.bricklink.com/PN/11/3002.png)|2|[3002](https://www.bricklink.com/v2/catalog/catalogitem.page?P=3002&idColor=11)|Black Brick 2 x 3|
|**Minifigures:**| | | |
|![Minifig No: tec001  Name: Technic Figure](//img.bricklink.com/MN/0/tec001.png)|1|[tec001](https://www.bricklink.com/v2/catalog/catalogitem.page?M=tec001) [Inv](https://www.bricklink.com/catalogItemInv.asp?M=tec001)|Technic Figure|[Catalog](https://www.bricklink.com/catalog.asp) : [Minifigures](https://www.bricklink.com/catalogList.asp?catType=M) : [Technic](https://www.bricklink.com/catalogList.asp?catType=M&catString=36)|
`

func TestExtractFullInventory(t *testing.T) {
	inv, err := Extract(setFixture, "8480-1", baseURL)
	require.NoError(t, err)

	assert.Equal(t, "8480-1", inv.SetNumber)
	assert.Equal(t, "Space Shuttle", inv.Name)
	assert.Equal(t, "https://img.bricklink.com/SL/8480-1.jpg", inv.ThumbnailURL)

	require.Len(t, inv.Categories, 2)
	assert.Equal(t, "Sets", inv.Categories[0].Name)
	assert.Equal(t, domain.Category{ID: "5", Name: "Technic"}, inv.Categories[1])

	require.Len(t, inv.Parts, 2)
	require.Len(t, inv.Minifigures, 1)
}

func TestExtractPartFields(t *testing.T) {
	inv, err := Extract(setFixture, "8480-1", baseURL)
	require.NoError(t, err)

	p := inv.Parts[0]
	assert.Equal(t, "3001", p.ID)
	assert.Equal(t, "Brick 2 x 4", p.Name)
	assert.Equal(t, "Red", p.ColorName)
	assert.Equal(t, "5", p.ColorID)
	assert.Equal(t, 4, p.Quantity)
	assert.Equal(t, "https://img.bricklink.com/PN/5/3001.png", p.ImageURL)
	assert.Equal(t, "https://www.bricklink.com/v2/catalog/catalogitem.page?P=3001&idColor=5", p.CanonicalURL)
}

func TestExtractSectionStickiness(t *testing.T) {
	inv, err := Extract(setFixture, "8480-1", baseURL)
	require.NoError(t, err)

	// Rows before any marker default to regular; a marker row changes all
	// subsequent rows until the next marker.
	assert.Equal(t, domain.SectionRegular, inv.Parts[0].Section)
	assert.Equal(t, domain.SectionCounterpart, inv.Parts[1].Section)
}

func TestExtractMinifigureFields(t *testing.T) {
	inv, err := Extract(setFixture, "8480-1", baseURL)
	require.NoError(t, err)

	fig := inv.Minifigures[0]
	assert.Equal(t, "tec001", fig.Identifier)
	assert.Equal(t, "Technic Figure", fig.Name)
	assert.Equal(t, 1, fig.Quantity)
	assert.Equal(t, "https://img.bricklink.com/MN/0/tec001.png", fig.ImageURL)
	assert.Equal(t, "https://www.bricklink.com/v2/catalog/catalogitem.page?M=tec001", fig.CatalogURL)
	// The second link of the minifigure cell is the inventory page.
	assert.Equal(t, "https://www.bricklink.com/catalogItemInv.asp?M=tec001", fig.InventoryURL)

	require.Len(t, fig.Categories, 2)
	assert.Equal(t, "Minifigures", fig.Categories[0].Name)
	assert.Equal(t, domain.Category{ID: "36", Name: "Technic"}, fig.Categories[1])
}

func TestExtractTableNotFound(t *testing.T) {
	inv, err := Extract("# Just a page\n\nwith no table\n", "123-1", baseURL)
	assert.Nil(t, inv)
	assert.ErrorIs(t, err, ErrTableNotFound)
}

func TestExtractMissingSetName(t *testing.T) {
	md := `| **Image** | **Qty** | **Item No** | **Description** |
|---|---|---|---|
|![Part No: 3001  Name: Brick 2 x 4](//img.bricklink.com/PN/5/3001.png)|4|[3001](https://www.bricklink.com/v2/catalog/catalogitem.page?P=3001&idColor=5)|Red Brick 2 x 4|
`
	inv, err := Extract(md, "123-1", baseURL)
	assert.Nil(t, inv)
	assert.ErrorIs(t, err, ErrMissingSetName)
}

func TestExtractMalformedRowAbortsWhole(t *testing.T) {
	md := `![Set No: 123-1  Name: Broken Set](//img.bricklink.com/S/123-1.jpg)

| **Image** | **Qty** | **Item No** | **Description** |
|---|---|---|---|
|**Minifigures:**| | | |
|x|1|[](https://www.bricklink.com/v2/catalog/catalogitem.page?M=)|Nameless|
`
	inv, err := Extract(md, "123-1", baseURL)
	assert.Nil(t, inv, "no partial inventory on malformed rows")

	var rowErr *MalformedRowError
	require.ErrorAs(t, err, &rowErr)
	assert.Contains(t, rowErr.Line, "Nameless")
}

func TestExtractSkipsRowsWithoutItemLink(t *testing.T) {
	md := `![Set No: 123-1  Name: Some Set](//img.bricklink.com/S/123-1.jpg)

| **Image** | **Qty** | **Item No** | **Description** |
|---|---|---|---|
|unrelated|row|without|links|
|![Part No: 3001  Name: Brick 2 x 4](//img.bricklink.com/PN/5/3001.png)|4|[3001](https://www.bricklink.com/v2/catalog/catalogitem.page?P=3001&idColor=5)|Red Brick 2 x 4|
`
	inv, err := Extract(md, "123-1", baseURL)
	require.NoError(t, err)
	require.Len(t, inv.Parts, 1)
}

func TestExtractPartSubInventoryLink(t *testing.T) {
	md := `![Set No: 123-1  Name: Multipack](//img.bricklink.com/S/123-1.jpg)

| **Image** | **Qty** | **Item No** | **Description** |
|---|---|---|---|
|![Part No: 9999-1  Name: Accessory Bag](//img.bricklink.com/PN/0/9999.png)|1|[9999-1](https://www.bricklink.com/v2/catalog/catalogitem.page?P=9999-1) [Inv](https://www.bricklink.com/catalogItemInv.asp?P=9999-1)|Accessory Bag|
`
	inv, err := Extract(md, "123-1", baseURL)
	require.NoError(t, err)
	require.Len(t, inv.Parts, 1)
	assert.Equal(t, "https://www.bricklink.com/catalogItemInv.asp?P=9999-1", inv.Parts[0].InventoryURL)
}

func TestExtractPartsOnlyIgnoresMinifigures(t *testing.T) {
	parts, err := ExtractParts(setFixture, baseURL)
	require.NoError(t, err)
	require.Len(t, parts, 2)
	assert.Equal(t, "3001", parts[0].ID)
	assert.Equal(t, "3002", parts[1].ID)
}

func TestExtractPartsOnlyNeedsNoMetadata(t *testing.T) {
	md := `| **Image** | **Qty** | **Item No** | **Description** |
|---|---|---|---|
|![Part No: 970  Name: Legs](//img.bricklink.com/PN/11/970.png)|1|[970](https://www.bricklink.com/v2/catalog/catalogitem.page?P=970&idColor=11)|Black Legs|
`
	parts, err := ExtractParts(md, baseURL)
	require.NoError(t, err)
	require.Len(t, parts, 1)
	assert.Equal(t, "Black", parts[0].ColorName)
}

func TestExtractColorFallsBackToWholeDescription(t *testing.T) {
	// Description does not embed the alt-text name, so the whole cell is
	// taken as the color description.
	md := `![Set No: 123-1  Name: Some Set](//img.bricklink.com/S/123-1.jpg)

| **Image** | **Qty** | **Item No** | **Description** |
|---|---|---|---|
|![Part No: 3001  Name: Brick 2 x 4](//img.bricklink.com/PN/5/3001.png)|4|[3001](https://www.bricklink.com/v2/catalog/catalogitem.page?P=3001&idColor=5)|Something Else Entirely|
`
	inv, err := Extract(md, "123-1", baseURL)
	require.NoError(t, err)
	require.Len(t, inv.Parts, 1)
	assert.Equal(t, "Something Else Entirely", inv.Parts[0].ColorName)
}

func TestMalformedRowErrorMessage(t *testing.T) {
	err := &MalformedRowError{Line: "|bad|row|"}
	assert.Contains(t, err.Error(), "|bad|row|")
	assert.False(t, errors.Is(err, ErrTableNotFound))
}
