// Package building provides the default parameter catalogue for
// building-energy models: schedules, thermostat, HVAC, ventilation, hot
// water, envelope constructions, geometry and weather.
package building

import (
	"github.com/aretw0/espalier/pkg/schema"
)

// Enumerations shared by several parameters.
var (
	FuelTypes = []string{
		"Electricity", "NaturalGas", "Propane", "FuelOil", "WoodPellets",
		"Coal", "Gasoline", "Diesel", "CustomFuel",
	}
	DHWFuelTypes = []string{"Electricity", "NaturalGas", "Propane", "FuelOil"}

	VentProviders  = []string{"None", "Natural", "Mechanical", "Both"}
	HRVTypes       = []string{"NoHRV", "Sensible", "Enthalpy"}
	EconomizerType = []string{"NoEconomizer", "DifferentialDryBulb", "DifferentialEnthalpy"}
	DCVTypes       = []string{"NoDCV", "OccupancySchedule", "CO2Setpoint"}

	FacadeStructuralSystems = []string{
		"none", "sheet_metal", "light_gauge_steel", "structural_steel", "woodframe",
		"deep_woodframe", "woodframe_24oc", "deep_woodframe_24oc", "engineered_timber",
		"cmu", "double_layer_cmu", "precast_concrete", "poured_concrete", "masonry",
		"rammed_earth", "reinforced_concrete", "sip",
	}
	FacadeInteriorFinishes = []string{"none", "drywall", "plaster", "wood_panel"}
	FacadeExteriorFinishes = []string{"none", "brick_veneer", "stucco", "fiber_cement", "metal_panel"}

	RoofStructuralSystems = []string{
		"none", "light_wood_truss", "deep_wood_truss", "steel_joist", "metal_deck",
		"mass_timber", "precast_concrete", "poured_concrete", "reinforced_concrete",
		"sip", "corrugated_metal",
	}
	RoofInteriorFinishes = []string{"none", "gypsum_board", "acoustic_tile", "wood_panel"}
	RoofExteriorFinishes = []string{
		"none", "epdm_membrane", "cool_membrane", "built_up_roof", "metal_roof",
		"tile_roof", "asphalt_shingle",
	}

	SlabStructuralSystems = []string{
		"none", "slab_on_grade", "thickened_edge_slab", "reinforced_concrete_suspended",
		"precast_hollow_core", "mass_timber_deck", "sip_floor",
	}
	SlabInsulationPlacements = []string{"auto", "under_slab", "above_slab"}
	SlabInteriorFinishes     = []string{"none", "polished_concrete", "tile", "carpet", "wood_floor"}
	SlabExteriorFinishes     = []string{"none", "gypsum_board", "plaster"}
)

// Group names in catalogue order.
const (
	GroupEquipment   = "Equipment Schedule"
	GroupLighting    = "Lighting Schedule"
	GroupOccupancy   = "Occupancy Schedule"
	GroupThermostat  = "Thermostat Setpoints"
	GroupHVAC        = "HVAC Systems"
	GroupSpaceUse    = "Space Use"
	GroupVentilation = "Ventilation"
	GroupDHW         = "Domestic Hot Water"
	GroupEnvelope    = "Envelope"
	GroupWindows     = "Windows"
	GroupFacade      = "Facade Construction"
	GroupRoof        = "Roof Construction"
	GroupSlab        = "Slab Construction"
	GroupGeometry    = "Geometry"
	GroupWeather     = "Weather"
)

var scheduleSuffixes = []struct{ suffix, desc string }{
	{"Base", "baseline fraction during unoccupied hours"},
	{"AMInterp", "morning ramp fraction"},
	{"LunchInterp", "midday fraction"},
	{"PMInterp", "afternoon and evening fraction"},
	{"WeekendPeakInterp", "weekend peak relative to weekday peak"},
	{"SummerPeakInterp", "summer peak relative to winter peak"},
}

type builder struct {
	group  string
	params []schema.Parameter
}

func (b *builder) add(name string, typ schema.Type, unit, desc string) {
	b.params = append(b.params, schema.Parameter{
		Name: name, Group: b.group, Type: typ, Unit: unit, Description: desc, Required: true,
	})
}

func (b *builder) direct(name string, typ schema.Type, unit, desc string) {
	b.params = append(b.params, schema.Parameter{
		Name: name, Group: b.group, Type: typ, Unit: unit, Description: desc, Required: true, Direct: true,
	})
}

func (b *builder) schedule(prefix string) {
	for _, s := range scheduleSuffixes {
		b.add(prefix+s.suffix, schema.NumberIn(0, 1), "", s.desc)
	}
}

func (b *builder) construction(prefix string, structural, interior, exterior []string) {
	b.add(prefix+"StructuralSystem", schema.Enum(structural...), "", "load-bearing system")
	b.add(prefix+"CavityInsulationRValue", schema.NumberIn(0, 20), "m2K/W", "insulation between structural members")
	b.add(prefix+"ExteriorInsulationRValue", schema.NumberIn(0, 20), "m2K/W", "continuous exterior insulation")
	b.add(prefix+"InteriorInsulationRValue", schema.NumberIn(0, 20), "m2K/W", "continuous interior insulation")
	b.add(prefix+"InteriorFinish", schema.Enum(interior...), "", "interior finish layer")
	b.add(prefix+"ExteriorFinish", schema.Enum(exterior...), "", "exterior finish layer")
}

// Parameters returns a fresh copy of the building-energy catalogue.
func Parameters() *schema.Parameters {
	b := &builder{}

	b.group = GroupEquipment
	b.schedule("Equipment")
	b.group = GroupLighting
	b.schedule("Lighting")
	b.group = GroupOccupancy
	b.schedule("Occupancy")

	b.group = GroupThermostat
	b.add("HeatingSetpointBase", schema.NumberIn(0, 23), "degC", "occupied heating setpoint")
	b.add("SetpointDeadband", schema.NumberIn(0, 10), "degC", "gap between heating and cooling setpoints")
	b.add("HeatingSetpointSetback", schema.NumberIn(0, 10), "degC", "heating setback amount")
	b.add("CoolingSetpointSetback", schema.NumberIn(0, 10), "degC", "cooling setback amount")
	b.add("NightSetback", schema.NumberIn(0, 1), "", "fraction of nights with setback")
	b.add("WeekendSetback", schema.NumberIn(0, 1), "", "fraction of weekend hours with setback")
	b.add("SummerSetback", schema.NumberIn(0, 1), "", "fraction of summer hours with setback")

	b.group = GroupHVAC
	b.add("HeatingFuel", schema.Enum(FuelTypes...), "", "heating fuel")
	b.add("CoolingFuel", schema.Enum(FuelTypes...), "", "cooling fuel")
	b.add("HeatingSystemCOP", schema.NumberIn(0, 10), "", "heating plant efficiency")
	b.add("CoolingSystemCOP", schema.NumberIn(0, 10), "", "cooling plant efficiency")
	b.add("HeatingDistributionCOP", schema.NumberIn(0, 1), "", "heating distribution efficiency")
	b.add("CoolingDistributionCOP", schema.NumberIn(0, 1), "", "cooling distribution efficiency")

	b.group = GroupSpaceUse
	b.add("EquipmentPowerDensity", schema.NumberIn(0, 200), "W/m2", "plug load density")
	b.add("LightingPowerDensity", schema.NumberIn(0, 100), "W/m2", "lighting load density")
	b.add("OccupantDensity", schema.NumberIn(0, 50), "people/m2", "peak occupant density")

	b.group = GroupVentilation
	b.add("VentFlowRatePerPerson", schema.NumberIn(0, 0.1), "m3/s/person", "outdoor air per person")
	b.add("VentFlowRatePerArea", schema.NumberIn(0, 0.01), "m3/s/m2", "outdoor air per floor area")
	b.add("VentProvider", schema.Enum(VentProviders...), "", "ventilation provider")
	b.add("VentHRV", schema.Enum(HRVTypes...), "", "heat recovery")
	b.add("VentEconomizer", schema.Enum(EconomizerType...), "", "economizer control")
	b.add("VentDCV", schema.Enum(DCVTypes...), "", "demand-controlled ventilation")

	b.group = GroupDHW
	b.add("DHWFlowRatePerPerson", schema.NumberIn(0, 0.1), "m3/day/person", "hot water use per person")
	b.add("DHWFuel", schema.Enum(DHWFuelTypes...), "", "water heating fuel")
	b.add("DHWSystemCOP", schema.NumberIn(0, 10), "", "water heater efficiency")
	b.add("DHWDistributionCOP", schema.NumberIn(0, 1), "", "hot water distribution efficiency")

	b.group = GroupEnvelope
	b.add("InfiltrationACH", schema.NumberIn(0, 20), "1/h", "air changes per hour from infiltration")

	b.group = GroupWindows
	b.add("WindowUValue", schema.NumberIn(0, 7), "W/m2K", "glazing system U-value")
	b.add("WindowSHGF", schema.NumberIn(0, 1), "", "solar heat gain fraction")
	b.add("WindowTVis", schema.NumberIn(0, 1), "", "visible transmittance")

	b.group = GroupFacade
	b.construction("Facade", FacadeStructuralSystems, FacadeInteriorFinishes, FacadeExteriorFinishes)

	b.group = GroupRoof
	b.construction("Roof", RoofStructuralSystems, RoofInteriorFinishes, RoofExteriorFinishes)

	b.group = GroupSlab
	b.add("SlabStructuralSystem", schema.Enum(SlabStructuralSystems...), "", "floor slab system")
	b.add("SlabInsulationRValue", schema.NumberIn(0, 20), "m2K/W", "slab insulation")
	b.add("SlabInsulationPlacement", schema.Enum(SlabInsulationPlacements...), "", "slab insulation position")
	b.add("SlabInteriorFinish", schema.Enum(SlabInteriorFinishes...), "", "floor finish")
	b.add("SlabExteriorFinish", schema.Enum(SlabExteriorFinishes...), "", "slab underside finish")

	b.group = GroupGeometry
	b.direct("WWR", schema.NumberIn(0, 1), "", "window-to-wall ratio")
	b.direct("F2FHeight", schema.NumberIn(2, 10), "m", "floor-to-floor height")
	b.direct("NFloors", schema.IntegerIn(1, 200), "", "number of floors")
	b.direct("Width", schema.NumberIn(1, 1000), "m", "footprint width")
	b.direct("Depth", schema.NumberIn(1, 1000), "m", "footprint depth")
	b.direct("Rotation", schema.NumberIn(0, 360), "deg", "footprint rotation")

	b.group = GroupWeather
	b.direct("EPWURI", schema.String(), "", "weather file location")

	return schema.MustParameters(b.params...)
}
