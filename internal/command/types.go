package command

// Type identifies a command variant in requests from hosts.
type Type string

const (
	TypeSetAtlasName                    Type = "setAtlasName"
	TypeCreateRegion                    Type = "createRegion"
	TypeRemoveRegion                    Type = "removeRegion"
	TypeSetRegionName                   Type = "setRegionName"
	TypeCreateMap                       Type = "createMap"
	TypeRemoveMap                       Type = "removeMap"
	TypeSetMapName                      Type = "setMapName"
	TypeResizeMap                       Type = "resizeMap"
	TypeSetMapOrigin                    Type = "setMapOrigin"
	TypeSetMapMargin                    Type = "setMapMargin"
	TypeSetMapNumeralAxis               Type = "setMapNumeralAxis"
	TypeSetMapNumeralOffset             Type = "setMapNumeralOffset"
	TypeSetMapAxisFont                  Type = "setMapAxisFont"
	TypeSetMapAxisFontColor             Type = "setMapAxisFontColor"
	TypeSetMapGridColor                 Type = "setMapGridColor"
	TypeSetMapBackgroundColor           Type = "setMapBackgroundColor"
	TypeSetMapBackgroundImage           Type = "setMapBackgroundImage"
	TypeSetMapBackgroundRendering       Type = "setMapBackgroundRendering"
	TypeSetMapBackgroundImageRenderMode Type = "setMapBackgroundImageRenderMode"
	TypePlaceTile                       Type = "placeTile"
	TypeRemoveTile                      Type = "removeTile"
	TypeComposite                       Type = "composite"
	TypeNop                             Type = "nop"
)

// Types lists every command type a host may request.
func Types() []Type {
	return []Type{
		TypeSetAtlasName, TypeCreateRegion, TypeRemoveRegion, TypeSetRegionName,
		TypeCreateMap, TypeRemoveMap, TypeSetMapName, TypeResizeMap,
		TypeSetMapOrigin, TypeSetMapMargin, TypeSetMapNumeralAxis, TypeSetMapNumeralOffset,
		TypeSetMapAxisFont, TypeSetMapAxisFontColor, TypeSetMapGridColor,
		TypeSetMapBackgroundColor, TypeSetMapBackgroundImage, TypeSetMapBackgroundRendering,
		TypeSetMapBackgroundImageRenderMode, TypePlaceTile, TypeRemoveTile,
		TypeComposite, TypeNop,
	}
}
