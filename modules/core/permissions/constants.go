package permissions

import (
	"github.com/google/uuid"

	"github.com/addissystems/orgadmin/modules/core/domain/entities/permission"
)

const (
	ResourceUser         permission.Resource = "user"
	ResourceRole         permission.Resource = "role"
	ResourceOrganization permission.Resource = "organization"
	ResourceSector       permission.Resource = "sector"
	ResourceDepartment   permission.Resource = "department"
	ResourceTeam         permission.Resource = "team"
	ResourceDelegation   permission.Resource = "delegation"
	ResourceReport       permission.Resource = "report"
	ResourceAuditLog     permission.Resource = "audit_log"
)

var (
	UserCreate = &permission.Permission{
		ID:       uuid.MustParse("2d19547a-3b85-4b5f-9c12-8f4ab1c60d01"),
		Name:     "User.Create",
		Resource: ResourceUser,
		Action:   permission.ActionCreate,
	}
	UserView = &permission.Permission{
		ID:       uuid.MustParse("9f2e6ab8-55c1-43d4-9a3e-70dcb1f8e902"),
		Name:     "User.View",
		Resource: ResourceUser,
		Action:   permission.ActionView,
	}
	UserUpdate = &permission.Permission{
		ID:       uuid.MustParse("4c1c8e92-07d7-4f2f-bf0d-61e54a3b7c03"),
		Name:     "User.Update",
		Resource: ResourceUser,
		Action:   permission.ActionUpdate,
	}
	UserDelete = &permission.Permission{
		ID:       uuid.MustParse("7ab3fd14-92cd-4e16-8d27-35f9c02d1e04"),
		Name:     "User.Delete",
		Resource: ResourceUser,
		Action:   permission.ActionDelete,
	}
	RoleCreate = &permission.Permission{
		ID:       uuid.MustParse("c58f0a27-61b4-4d88-b25e-40a7d9e30f05"),
		Name:     "Role.Create",
		Resource: ResourceRole,
		Action:   permission.ActionCreate,
	}
	RoleView = &permission.Permission{
		ID:       uuid.MustParse("e91b3c46-78da-49f1-a60b-52c8f1a42d06"),
		Name:     "Role.View",
		Resource: ResourceRole,
		Action:   permission.ActionView,
	}
	RoleUpdate = &permission.Permission{
		ID:       uuid.MustParse("16d8ea53-2f09-40cb-93d7-64b0e2c53e07"),
		Name:     "Role.Update",
		Resource: ResourceRole,
		Action:   permission.ActionUpdate,
	}
	RoleDelete = &permission.Permission{
		ID:       uuid.MustParse("38a5cb60-4d17-4a0e-8ce9-76d1f3b64f08"),
		Name:     "Role.Delete",
		Resource: ResourceRole,
		Action:   permission.ActionDelete,
	}
	OrganizationCreate = &permission.Permission{
		ID:       uuid.MustParse("5ae2dc77-6b25-4b1a-9df0-88e204c75a09"),
		Name:     "Organization.Create",
		Resource: ResourceOrganization,
		Action:   permission.ActionCreate,
	}
	OrganizationView = &permission.Permission{
		ID:       uuid.MustParse("7cbfed84-8933-4c28-ae01-9af315d86b10"),
		Name:     "Organization.View",
		Resource: ResourceOrganization,
		Action:   permission.ActionView,
	}
	OrganizationUpdate = &permission.Permission{
		ID:       uuid.MustParse("9e1cfe91-a741-4d36-bf12-ac0426e97c11"),
		Name:     "Organization.Update",
		Resource: ResourceOrganization,
		Action:   permission.ActionUpdate,
	}
	OrganizationDelete = &permission.Permission{
		ID:       uuid.MustParse("b03e0f0e-c55f-4e44-c023-be1537fa8d12"),
		Name:     "Organization.Delete",
		Resource: ResourceOrganization,
		Action:   permission.ActionDelete,
	}
	SectorCreate = &permission.Permission{
		ID:       uuid.MustParse("c25f10ab-d76d-4f52-d134-cf2648ab9e13"),
		Name:     "Sector.Create",
		Resource: ResourceSector,
		Action:   permission.ActionCreate,
	}
	SectorUpdate = &permission.Permission{
		ID:       uuid.MustParse("d47021b8-e87b-4060-e245-d03759bcaf14"),
		Name:     "Sector.Update",
		Resource: ResourceSector,
		Action:   permission.ActionUpdate,
	}
	SectorDelete = &permission.Permission{
		ID:       uuid.MustParse("e69132c5-f989-4171-f356-e1486acdb015"),
		Name:     "Sector.Delete",
		Resource: ResourceSector,
		Action:   permission.ActionDelete,
	}
	DepartmentCreate = &permission.Permission{
		ID:       uuid.MustParse("f8b243d2-0a97-4282-0467-f2597bdec116"),
		Name:     "Department.Create",
		Resource: ResourceDepartment,
		Action:   permission.ActionCreate,
	}
	DepartmentUpdate = &permission.Permission{
		ID:       uuid.MustParse("0ad354df-1ba5-4393-1578-036a8cefd217"),
		Name:     "Department.Update",
		Resource: ResourceDepartment,
		Action:   permission.ActionUpdate,
	}
	DepartmentDelete = &permission.Permission{
		ID:       uuid.MustParse("1ce465ec-2cb3-44a4-2689-147b9dfae318"),
		Name:     "Department.Delete",
		Resource: ResourceDepartment,
		Action:   permission.ActionDelete,
	}
	TeamCreate = &permission.Permission{
		ID:       uuid.MustParse("2ef576f9-3dc1-45b5-379a-258cae0bf419"),
		Name:     "Team.Create",
		Resource: ResourceTeam,
		Action:   permission.ActionCreate,
	}
	TeamUpdate = &permission.Permission{
		ID:       uuid.MustParse("40168706-4edf-46c6-48ab-369dbf1c0520"),
		Name:     "Team.Update",
		Resource: ResourceTeam,
		Action:   permission.ActionUpdate,
	}
	TeamDelete = &permission.Permission{
		ID:       uuid.MustParse("52279813-5fed-47d7-59bc-47aec02d1621"),
		Name:     "Team.Delete",
		Resource: ResourceTeam,
		Action:   permission.ActionDelete,
	}
	DelegationCreate = &permission.Permission{
		ID:       uuid.MustParse("6438a920-70fb-48e8-6acd-58bfd13e2722"),
		Name:     "Delegation.Create",
		Resource: ResourceDelegation,
		Action:   permission.ActionCreate,
	}
	DelegationView = &permission.Permission{
		ID:       uuid.MustParse("7549ba3d-8209-49f9-7bde-69c0e24f3823"),
		Name:     "Delegation.View",
		Resource: ResourceDelegation,
		Action:   permission.ActionView,
	}
	ReportApprove = &permission.Permission{
		ID:       uuid.MustParse("92f1dc58-a425-4b1b-9df0-8be2f4715a25"),
		Name:     "Report.Approve",
		Resource: ResourceReport,
		Action:   permission.ActionApprove,
	}
	AuditLogView = &permission.Permission{
		ID:       uuid.MustParse("865acb4a-9317-4a0a-8cef-7ad1f3604924"),
		Name:     "AuditLog.View",
		Resource: ResourceAuditLog,
		Action:   permission.ActionView,
	}
)

var Permissions = []*permission.Permission{
	UserCreate,
	UserView,
	UserUpdate,
	UserDelete,
	RoleCreate,
	RoleView,
	RoleUpdate,
	RoleDelete,
	OrganizationCreate,
	OrganizationView,
	OrganizationUpdate,
	OrganizationDelete,
	SectorCreate,
	SectorUpdate,
	SectorDelete,
	DepartmentCreate,
	DepartmentUpdate,
	DepartmentDelete,
	TeamCreate,
	TeamUpdate,
	TeamDelete,
	DelegationCreate,
	DelegationView,
	ReportApprove,
	AuditLogView,
}
